// SPDX-License-Identifier: MPL-2.0

// Package latest answers "what is the newest version of this module?".
//
// [Source] dispatches on the module's source: Forge modules ask the Forge API
// for their current release, git modules use the newest tag of their
// repository. Successful answers are written to a [cache.Store] keyed by
// [puppetfile.Module.CacheKey] so later runs within the cache TTL skip the
// network.
package latest

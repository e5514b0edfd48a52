// SPDX-License-Identifier: MPL-2.0

// Package cache persists latest-version lookups between runs.
//
// Entries are small JSON documents stored one per file, keyed by a hash of
// the lookup subject, and expire after a configurable time-to-live. The cache
// never fails its caller: unreadable, corrupt or expired entries are misses and
// write failures are only logged.
package cache

// SPDX-License-Identifier: MPL-2.0

// Package reconcile computes how an environment's module set changes for an
// update intent.
//
// The [Engine] supports four mutually exclusive modes, each returning a new
// environment together with the commit message describing the change:
//   - [Engine.BulkRefresh]: move matching modules to their latest version
//   - [Engine.Pin]: set one module to an explicit version
//   - [Engine.ReferenceCopy]: align an environment with a reference environment
//   - [Engine.BulkRemove]: delete matching modules
//
// [Resolver] validates single-module pin requests against the Forge or the
// module's git repository before they reach the engine.
package reconcile

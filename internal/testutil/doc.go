// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by crmngr tests: a manually
// advanced clock for TTL logic and environment overrides that restore the
// previous value when the test ends.
package testutil

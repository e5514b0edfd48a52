// SPDX-License-Identifier: MPL-2.0

// Package report aggregates module declarations across environments.
//
// Modules are grouped by name and then by their full key (source and
// version), each row listing the environments deploying it. In compare mode
// modules declared identically everywhere are hidden and environments lacking
// a module are listed as missing. With version checking enabled every row is
// compared against the newest available version.
package report

// SPDX-License-Identifier: MPL-2.0

// Package forge is a minimal client for the Puppet Forge v3 module API.
//
// It answers the two questions crmngr asks of the Forge: which release of a
// module is current, and whether a given release exists.
package forge

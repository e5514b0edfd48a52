// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown help
// texts rendered with glamour when the CLI reports a known failure.
package issue

// SPDX-License-Identifier: MPL-2.0

// Package prompt asks the operator for confirmation and input.
//
// [HuhPrompter] renders charmbracelet/huh forms, falling back to huh's
// accessible line mode when stdin is not a terminal. [Scripted] replays
// canned answers.
package prompt

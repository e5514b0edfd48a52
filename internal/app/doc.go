// SPDX-License-Identifier: MPL-2.0

// Package app runs the crmngr operations against a control repository.
//
// A [Service] clones the control repository of the selected profile, loads
// the matching environments, and hands them to the reconciliation and report
// engines. User-facing text goes through a [Printer] and questions through a
// prompt.Confirmer, so the service itself never touches the terminal.
package app

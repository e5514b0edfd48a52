// SPDX-License-Identifier: MPL-2.0

package app

import (
	"fmt"
	"io"

	"crmngr-cli/internal/controlrepo"
)

// TextPrinter is a Printer writing unstyled text.
type TextPrinter struct {
	w io.Writer
}

// NewTextPrinter creates a TextPrinter writing to w.
func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{w: w}
}

// Heading implements Printer.
func (p *TextPrinter) Heading(text string) { fmt.Fprintln(p.w, text) }

// Item implements Printer.
func (p *TextPrinter) Item(text string) { fmt.Fprintf(p.w, " - %s\n", text) }

// Success implements Printer.
func (p *TextPrinter) Success(text string) { fmt.Fprintln(p.w, text) }

// Diff implements Printer.
func (p *TextPrinter) Diff(d controlrepo.Diff) { fmt.Fprint(p.w, d.String()) }

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"crmngr-cli/internal/controlrepo"
)

// styledPrinter renders service output with the CLI styles.
type styledPrinter struct {
	w io.Writer
}

func newStyledPrinter(w io.Writer) *styledPrinter {
	return &styledPrinter{w: w}
}

func (p *styledPrinter) Heading(text string) {
	fmt.Fprintln(p.w, TitleStyle.Render(text))
}

func (p *styledPrinter) Item(text string) {
	fmt.Fprintf(p.w, " - %s\n", text)
}

func (p *styledPrinter) Success(text string) {
	fmt.Fprintln(p.w, SuccessStyle.Render(text))
}

func (p *styledPrinter) Diff(d controlrepo.Diff) {
	for _, l := range d.Hunks() {
		if l == nil {
			fmt.Fprintln(p.w, diffGapStyle.Render("..."))
			continue
		}
		line := l.Op.Prefix() + l.Text
		switch l.Op {
		case controlrepo.LineInsert:
			line = diffInsertStyle.Render(line)
		case controlrepo.LineDelete:
			line = diffDeleteStyle.Render(line)
		}
		fmt.Fprintln(p.w, line)
	}
}

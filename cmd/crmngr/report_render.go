// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"crmngr-cli/pkg/puppetfile"
	"crmngr-cli/pkg/report"
)

const (
	// reportIndent is the column values start at.
	reportIndent = 16
	// reportWidth is the width environment lists wrap at.
	reportWidth = 70
	// shortCommit is the number of commit SHA characters shown.
	shortCommit = 7
)

type textOptions struct {
	versionCheck bool
	wrap         bool
}

// renderReport writes rep in the human readable text layout.
func renderReport(w io.Writer, rep report.Report, opts textOptions) {
	multi := len(rep.Environments) > 1
	pad := strings.Repeat(" ", reportIndent)

	for _, m := range rep.Modules {
		fmt.Fprintln(w, moduleStyle.Render("Module: "+m.Name))
		for _, row := range m.Rows {
			renderRow(w, row, opts)
			if multi {
				lines := wrapList(row.Environments, opts.wrap)
				fmt.Fprintln(w, label("Used by:", 4)+environmentStyle.Render(lines[0]))
				for _, line := range lines[1:] {
					fmt.Fprintln(w, pad+environmentStyle.Render(line))
				}
			}
			fmt.Fprintln(w)
		}

		if rep.Compare && len(m.Missing) > 0 {
			fmt.Fprintln(w, "  "+WarningStyle.Render("Missing from:"))
			for _, line := range wrapList(m.Missing, opts.wrap) {
				fmt.Fprintln(w, pad+missingStyle.Render(line))
			}
			fmt.Fprintln(w)
		}
	}
}

func renderRow(w io.Writer, row report.Row, opts textOptions) {
	pad := strings.Repeat(" ", reportIndent)
	declared := row.Declared.Version()

	fmt.Fprintln(w, "  "+versionLabel.Render("Version:"))
	var version string
	switch row.Declared.Source() {
	case puppetfile.SourceRegistry:
		fmt.Fprintln(w, label("Forge:", 4)+row.Declared.ForgeName()+":")
		if declared == nil {
			version = floatingStyle.Render("UNSPECIFIED")
		} else {
			version = statusStyle(row.Status).Render(declared.Value)
		}
	default:
		fmt.Fprintln(w, label("Git:", 4)+row.Declared.URL())
		version = gitVersion(declared, row.Status)
	}

	if opts.versionCheck {
		version += fmt.Sprintf(" [Latest: %s]", row.Latest)
	}
	fmt.Fprintln(w, pad+version)
}

// gitVersion renders a git pin with its kind.
func gitVersion(v *puppetfile.Version, status report.Status) string {
	if v == nil {
		return floatingStyle.Render("UNSPECIFIED")
	}
	switch v.Kind {
	case puppetfile.KindBranch:
		return refLabel.Render("Branch: ") + outdatedStyle.Render(v.Value)
	case puppetfile.KindCommit:
		sha := v.Value
		if len(sha) > shortCommit {
			sha = sha[:shortCommit]
		}
		return commitLabel.Render("Commit: ") + floatingStyle.Render(sha)
	case puppetfile.KindRef:
		return commitLabel.Render("Ref: ") + floatingStyle.Render(v.Value)
	default:
		return refLabel.Render("Tag: ") + statusStyle(status).Render(v.Value)
	}
}

func statusStyle(status report.Status) lipgloss.Style {
	if status == report.StatusCurrent {
		return currentStyle
	}
	return outdatedStyle
}

// label left-pads text by lpad and right-pads it to the value column.
func label(text string, lpad int) string {
	return strings.Repeat(" ", lpad) + text + strings.Repeat(" ", max(1, reportIndent-lpad-len(text)))
}

// wrapList joins items with spaces, wrapped to fit next to the value column.
// The result always holds at least one line.
func wrapList(items []string, wrap bool) []string {
	text := strings.Join(items, " ")
	if !wrap {
		return []string{text}
	}
	lines := strings.Split(wordwrap.String(text, reportWidth-reportIndent), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

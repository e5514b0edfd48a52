// SPDX-License-Identifier: MPL-2.0

package controlrepo

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

const (
	// LineEqual is an unchanged line.
	LineEqual LineOp = iota
	// LineDelete is a line only present in the old manifest.
	LineDelete
	// LineInsert is a line only present in the new manifest.
	LineInsert
)

type (
	// LineOp classifies a diff line.
	LineOp int

	// DiffLine is one line of a manifest diff.
	DiffLine struct {
		Op   LineOp
		Text string
	}

	// Diff is a pending manifest change for one environment.
	Diff struct {
		Environment string
		Old         string
		New         string
		Lines       []DiffLine
		// existed records whether the manifest was present before the change.
		existed bool
	}
)

// Prefix returns the unified diff marker for the operation.
func (op LineOp) Prefix() string {
	switch op {
	case LineDelete:
		return "-"
	case LineInsert:
		return "+"
	default:
		return " "
	}
}

// Changed reports whether the new manifest differs from the old one.
func (d Diff) Changed() bool { return d.Old != d.New }

// Hunks returns the changed lines with up to three lines of context around
// each change. A nil element separates non-adjacent hunks.
func (d Diff) Hunks() []*DiffLine {
	keep := make([]bool, len(d.Lines))
	for i, l := range d.Lines {
		if l.Op == LineEqual {
			continue
		}
		for j := max(0, i-diffContext); j <= min(len(d.Lines)-1, i+diffContext); j++ {
			keep[j] = true
		}
	}

	var out []*DiffLine
	last := -1
	for i := range d.Lines {
		if !keep[i] {
			continue
		}
		if last >= 0 && i != last+1 {
			out = append(out, nil)
		}
		out = append(out, &d.Lines[i])
		last = i
	}
	return out
}

// String renders the hunks in unified diff style.
func (d Diff) String() string {
	var sb strings.Builder
	for _, l := range d.Hunks() {
		if l == nil {
			sb.WriteString("...\n")
			continue
		}
		sb.WriteString(l.Op.Prefix())
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// lineDiff computes a line-level diff of two texts.
func lineDiff(oldText, newText string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := LineEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = LineDelete
		case diffmatchpatch.DiffInsert:
			op = LineInsert
		case diffmatchpatch.DiffEqual:
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return out
}

// SPDX-License-Identifier: MPL-2.0

package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func accessible(input string) (*HuhPrompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewHuhPrompter(Config{Accessible: true, Input: strings.NewReader(input), Output: &out}), &out
}

func TestHuhPrompter_ConfirmAccessible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"yes", "y\n", false, true},
		{"no", "n\n", true, false},
		{"default yes", "\n", true, true},
		{"default no", "\n", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, out := accessible(tt.input)
			got, err := p.Confirm(context.Background(), "Really delete environment x?", tt.defaultYes)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Really delete environment x?") {
				t.Errorf("question not shown:\n%s", out.String())
			}
		})
	}
}

func TestHuhPrompter_InputAccessible(t *testing.T) {
	t.Parallel()

	p, _ := accessible("  git@example.com:control.git  \n")
	got, err := p.Input(context.Background(), "Control repository url:")
	if err != nil {
		t.Fatalf("Input() error = %v", err)
	}
	if got != "git@example.com:control.git" {
		t.Errorf("Input() = %q", got)
	}
}

func TestScripted(t *testing.T) {
	t.Parallel()

	s := &Scripted{Answers: []bool{true}, Inputs: []string{"url"}}
	ctx := context.Background()

	if ok, err := s.Confirm(ctx, "q1", false); err != nil || !ok {
		t.Errorf("Confirm() = %v, %v", ok, err)
	}
	if _, err := s.Confirm(ctx, "q2", false); !errors.Is(err, ErrAborted) {
		t.Errorf("exhausted Confirm() error = %v, want ErrAborted", err)
	}
	if v, err := s.Input(ctx, "q3"); err != nil || v != "url" {
		t.Errorf("Input() = %q, %v", v, err)
	}
	if _, err := s.Input(ctx, "q4"); !errors.Is(err, ErrAborted) {
		t.Errorf("exhausted Input() error = %v, want ErrAborted", err)
	}
	if strings.Join(s.Asked, ",") != "q1,q2,q3,q4" {
		t.Errorf("Asked = %v", s.Asked)
	}
}

func TestHuhTheme(t *testing.T) {
	t.Parallel()

	for _, th := range []Theme{ThemeDefault, ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16, "unknown"} {
		if huhTheme(th) == nil {
			t.Errorf("huhTheme(%q) = nil", th)
		}
	}
}

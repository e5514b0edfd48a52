// SPDX-License-Identifier: MPL-2.0

package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

type (
	// Confirmer asks yes/no questions.
	Confirmer interface {
		Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
	}

	// Inputter asks for a line of text.
	Inputter interface {
		Input(ctx context.Context, title string) (string, error)
	}

	// Prompter asks both kinds of questions.
	Prompter interface {
		Confirmer
		Inputter
	}

	// Theme names a huh theme.
	Theme string

	// Config holds common prompt configuration.
	Config struct {
		Theme Theme
		// Accessible replaces the interactive widgets with plain line prompts.
		Accessible bool
		Input      io.Reader
		Output     io.Writer
	}

	// HuhPrompter implements Prompter with charmbracelet/huh forms.
	HuhPrompter struct {
		cfg Config
	}
)

// DefaultConfig prompts on the terminal. Accessible mode is enabled when stdin
// is not a terminal or ACCESSIBLE is set; prompts then go to stderr so they
// are not captured with the command output.
func DefaultConfig() Config {
	accessible := !term.IsTerminal(int(os.Stdin.Fd())) || os.Getenv("ACCESSIBLE") != ""

	var output io.Writer = os.Stdout
	if accessible {
		output = os.Stderr
	}
	return Config{
		Theme:      ThemeDefault,
		Accessible: accessible,
		Input:      os.Stdin,
		Output:     output,
	}
}

// NewHuhPrompter creates a HuhPrompter.
func NewHuhPrompter(cfg Config) *HuhPrompter {
	return &HuhPrompter{cfg: cfg}
}

// Confirm asks question and returns the answer.
func (p *HuhPrompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	answer := defaultYes
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)
	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return answer, nil
}

// Input asks for a line of text and returns it trimmed.
func (p *HuhPrompter) Input(ctx context.Context, title string) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Value(&value)
	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huhTheme(p.cfg.Theme)).
		WithAccessible(p.cfg.Accessible).
		WithShowHelp(false)
	if p.cfg.Input != nil {
		form = form.WithInput(p.cfg.Input)
	}
	if p.cfg.Output != nil {
		form = form.WithOutput(p.cfg.Output)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// huhTheme converts a Theme to a huh.Theme.
func huhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}

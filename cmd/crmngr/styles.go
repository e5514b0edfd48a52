// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output. Tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple, for headings.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green, for current versions and completed actions.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red, for errors, commits and unpinned modules.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber, for warnings and outdated versions.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, for kinds of git pins.
	ColorHighlight = lipgloss.Color("#3B82F6")
	// ColorEnvironment is cyan, for environment lists.
	ColorEnvironment = lipgloss.Color("#06B6D4")
	// ColorVersion is magenta, for version block labels.
	ColorVersion = lipgloss.Color("#D946EF")
)

var (
	// TitleStyle is for headings.
	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for completed actions.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	// Report styles.
	moduleStyle      = lipgloss.NewStyle().Bold(true)
	versionLabel     = lipgloss.NewStyle().Bold(true).Foreground(ColorVersion)
	refLabel         = lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight)
	commitLabel      = lipgloss.NewStyle().Foreground(ColorError)
	currentStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	outdatedStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	floatingStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	environmentStyle = lipgloss.NewStyle().Foreground(ColorEnvironment)
	missingStyle     = lipgloss.NewStyle().Foreground(ColorWarning)

	// Diff styles.
	diffInsertStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	diffDeleteStyle = lipgloss.NewStyle().Foreground(ColorError)
	diffGapStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
)

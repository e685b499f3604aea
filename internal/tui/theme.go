// Package tui implements the interactive terminal session.
package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Palette matching the web page accent.
var (
	ColorAccent = lipgloss.Color("#ff4b4b")
	ColorUser   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorGreen  = lipgloss.Color("#8ec07c")
)

// Predefined lipgloss styles.
var (
	StyleTitle     = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	StyleHeading   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).MarginTop(1)
	StyleUser      = lipgloss.NewStyle().Foreground(ColorUser).Bold(true)
	StyleAssistant = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	StyleDim       = lipgloss.NewStyle().Foreground(ColorDim)
	StyleNotice    = lipgloss.NewStyle().Foreground(ColorAccent).Border(lipgloss.RoundedBorder()).BorderForeground(ColorAccent).Padding(0, 1)
)

// orloHuhTheme returns the huh theme used by every form.
func orloHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(ColorFg).Background(ColorAccent).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(ColorDim)

	return t
}

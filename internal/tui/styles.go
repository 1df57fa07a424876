package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

var (
	green  = lipgloss.Color("10")
	red    = lipgloss.Color("9")
	yellow = lipgloss.Color("11")
	gray   = lipgloss.Color("245")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(gray).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(gray)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gray).
			Padding(0, 1)
)

// badge renders the icon of a check status.
func badge(s install.Status) string {
	switch s {
	case install.StatusSuccess:
		return lipgloss.NewStyle().Foreground(green).Render("✓")
	case install.StatusWarning:
		return lipgloss.NewStyle().Foreground(yellow).Render("!")
	default:
		return lipgloss.NewStyle().Foreground(red).Render("✗")
	}
}

func resultBadge(ok bool) string {
	if ok {
		return badge(install.StatusSuccess)
	}
	return badge(install.StatusError)
}

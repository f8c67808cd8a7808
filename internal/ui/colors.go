// Package ui renders flow results and status output for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorPrimary   = lipgloss.Color("#a78bfa") // purple accent
	ColorSecondary = lipgloss.Color("#67e8f9") // cyan accent
	ColorWarning   = lipgloss.Color("#fbbf24")
	ColorSuccess   = lipgloss.Color("#22c55e")
	ColorError     = lipgloss.Color("#ef4444")
	ColorMuted     = lipgloss.Color("#6b7280")
	ColorSubtle    = lipgloss.Color("#374151")
	ColorText      = lipgloss.Color("#e5e7eb")
)

// Status icons.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "△"
	IconBullet  = "•"
)

// Shared styles.
var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	NameStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorSecondary)
	TextStyle    = lipgloss.NewStyle().Foreground(ColorText)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Width(16)
)

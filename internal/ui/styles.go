package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Header    lipgloss.Style
	Input     lipgloss.Style
	Stage     lipgloss.Style
	Done      lipgloss.Style
	Skip      lipgloss.Style
	Fail      lipgloss.Style
	Dim       lipgloss.Style
	Log       lipgloss.Style
	Summary   lipgloss.Style
	Cancelled lipgloss.Style
}

func newStyles() styles {
	return styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Input:     lipgloss.NewStyle().Bold(true),
		Stage:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Done:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Skip:      lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		Fail:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Log:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Summary:   lipgloss.NewStyle().Bold(true).MarginTop(1),
		Cancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("178")).Bold(true),
	}
}

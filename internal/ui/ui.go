// Package ui formats command output for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// DisableColor turns off color for the color and table printers. Styles
// already render plain text when output is not a terminal.
func DisableColor() {
	color.NoColor = true
	pterm.DisableColor()
}

// Success prints a success message
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Section prints a section title
func Section(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
}

// KeyValue prints a highlighted label followed by a value.
func KeyValue(w io.Writer, key, value string) {
	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", label(key+":"), value)
}

// Table prints a table using pterm. Without headers every row is data.
func Table(w io.Writer, headers []string, rows [][]string) error {
	var data pterm.TableData
	if len(headers) > 0 {
		data = append(data, headers)
	}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader(len(headers) > 0).WithWriter(w).WithData(data).Render()
}

// Markdown renders markdown content
func Markdown(w io.Writer, content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Diff prints a line diff of old and new
func Diff(w io.Writer, old, new string) {
	oldLines := strings.Split(old, "\n")
	newLines := strings.Split(new, "\n")

	for i := 0; i < len(oldLines) || i < len(newLines); i++ {
		switch {
		case i < len(oldLines) && i < len(newLines):
			if oldLines[i] != newLines[i] {
				fmt.Fprintln(w, ErrorStyle.Render("- "+oldLines[i]))
				fmt.Fprintln(w, SuccessStyle.Render("+ "+newLines[i]))
			} else {
				fmt.Fprintln(w, "  "+oldLines[i])
			}
		case i < len(oldLines):
			fmt.Fprintln(w, ErrorStyle.Render("- "+oldLines[i]))
		default:
			fmt.Fprintln(w, SuccessStyle.Render("+ "+newLines[i]))
		}
	}
}

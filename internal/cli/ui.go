package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - skipped statements
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleSkipped = lipgloss.NewStyle().Foreground(colorYellow)
	styleClean   = lipgloss.NewStyle().Foreground(colorGreen)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// uiOut receives status lines. Diagram output goes to stdout, so status
// lines never do.
var uiOut io.Writer = os.Stderr

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints graph statistics on a single line, e.g.
// "6 nodes · 6 edges · clean".
func printStats(nodeCount, edgeCount, skipped int) {
	status := styleClean.Render("clean")
	if skipped > 0 {
		status = styleSkipped.Render(fmt.Sprintf("%d skipped", skipped))
	}
	sep := StyleDim.Render(" · ")
	fmt.Fprintln(uiOut, "  "+
		StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount))+sep+
		StyleDim.Render(fmt.Sprintf("%d edges", edgeCount))+sep+status)
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

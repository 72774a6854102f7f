package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette is the colour set used for command output.
var palette = struct {
	Primary, Secondary, Muted, Success, Warning, Error, Border lipgloss.Color
}{
	Primary:   lipgloss.Color("#7C3AED"),
	Secondary: lipgloss.Color("#06B6D4"),
	Muted:     lipgloss.Color("#6C7086"),
	Success:   lipgloss.Color("#A6E3A1"),
	Warning:   lipgloss.Color("#F9E2AF"),
	Error:     lipgloss.Color("#F38BA8"),
	Border:    lipgloss.Color("#45475A"),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(palette.Primary)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(palette.Secondary)
	mutedStyle   = lipgloss.NewStyle().Foreground(palette.Muted)
	successStyle = lipgloss.NewStyle().Foreground(palette.Success)
	warningStyle = lipgloss.NewStyle().Foreground(palette.Warning)
	errorStyle   = lipgloss.NewStyle().Foreground(palette.Error)
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(palette.Border).
			Padding(0, 1)
)

// keyValues renders aligned "key: value" rows.
func keyValues(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	label := mutedStyle.Width(width + 1)

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = label.Render(r[0]+":") + " " + r[1]
	}
	return strings.Join(lines, "\n")
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderMarkdown formats md for w. Terminals get styled output; anything else
// gets the plain rendering so redirected output stays readable.
func renderMarkdown(w io.Writer, md string) string {
	style := glamour.WithStandardStyle("notty")
	if isTerminal(w) {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

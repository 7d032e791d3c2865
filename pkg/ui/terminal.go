package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed above interactive command output
const Banner = `
  ┌─┐┌─┐┌─┐┬┌─┐┬  ┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┬─┐
  └─┐│ ││  │├─┤│  └─┐│  ├┬┘├─┤├─┘├┤ ├┬┘
  └─┘└─┘└─┘┴┴ ┴┴─┘└─┘└─┘┴└─┴ ┴┴  └─┘┴└─
`

var (
	cyan    = lipgloss.Color("#00FFFF")
	yellow  = lipgloss.Color("#FFFF00")
	red     = lipgloss.Color("#FF5555")
	green   = lipgloss.Color("#39FF14")
	magenta = lipgloss.Color("#FF00FF")
	dim     = lipgloss.Color("#808080")

	bannerStyle  = lipgloss.NewStyle().Foreground(cyan)
	labelStyle   = lipgloss.NewStyle().Foreground(cyan)
	valueStyle   = lipgloss.NewStyle().Foreground(yellow)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	successStyle = lipgloss.NewStyle().Foreground(green)
	warningStyle = lipgloss.NewStyle().Foreground(yellow)
	noticeStyle  = lipgloss.NewStyle().Foreground(magenta)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
)

// Printer writes styled lines. Styles degrade to plain text when the
// output is not a terminal.
type Printer struct {
	out      io.Writer
	renderer *lipgloss.Renderer
}

// NewPrinter creates a printer for out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, renderer: lipgloss.NewRenderer(out)}
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	return style.Renderer(p.renderer).Render(text)
}

// Banner prints the application banner
func (p *Printer) Banner() {
	fmt.Fprintln(p.out, p.render(bannerStyle, Banner))
}

// Error prints a message, and the error when given, in red
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.render(errorStyle, msg))
}

// Success prints a message in green
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.render(successStyle, msg))
}

// Warning prints a message in yellow
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.out, p.render(warningStyle, msg))
}

// Info prints a label and its value
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.render(labelStyle, label), p.render(valueStyle, value))
}

// Dim prints secondary text
func (p *Printer) Dim(msg string) {
	fmt.Fprintln(p.out, p.render(dimStyle, msg))
}

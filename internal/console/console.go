// Package console renders the operator-facing output of both tools.
//
// Output is for humans only; anything machine-readable goes to the zerolog
// logger on stderr instead.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled lines to w. Colors are dropped automatically when w
// is not a terminal.
type Printer struct {
	w io.Writer

	titleStyle  lipgloss.Style
	infoStyle   lipgloss.Style
	stepStyle   lipgloss.Style
	checkStyle  lipgloss.Style
	warnStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	bannerStyle lipgloss.Style
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)

	return &Printer{
		w: w,
		titleStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")). // Pink
			MarginTop(1),
		infoStyle: r.NewStyle().
			Foreground(lipgloss.Color("86")). // Cyan
			MarginLeft(2),
		stepStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")). // Blue
			MarginTop(1),
		checkStyle: r.NewStyle().
			Foreground(lipgloss.Color("46")). // Green
			MarginLeft(2),
		warnStyle: r.NewStyle().
			Foreground(lipgloss.Color("214")). // Orange
			MarginLeft(2),
		errorStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		bannerStyle: r.NewStyle().
			Bold(true).
			Border(lipgloss.DoubleBorder(), true, false).
			Padding(0, 2),
	}
}

// Title prints a section heading.
func (p *Printer) Title(msg string) {
	p.println(p.titleStyle.Render(msg))
}

// Step prints a numbered stage header such as "[1/4] Connecting".
func (p *Printer) Step(n, total int, msg string) {
	p.println(p.stepStyle.Render(fmt.Sprintf("[%d/%d] %s", n, total, msg)))
}

// Info prints an indented informational line.
func (p *Printer) Info(msg string) {
	p.println(p.infoStyle.Render(msg))
}

// Check prints an indented success line.
func (p *Printer) Check(msg string) {
	p.println(p.checkStyle.Render("✓ " + msg))
}

// Warn prints an indented warning.
func (p *Printer) Warn(msg string) {
	p.println(p.warnStyle.Render("[warning] " + msg))
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	p.println(p.errorStyle.Render("✗ " + msg))
}

// Line prints msg unstyled.
func (p *Printer) Line(msg string) {
	p.println(msg)
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	p.println("")
}

// Banner prints msg between double rules.
func (p *Printer) Banner(msg string) {
	p.println(p.bannerStyle.Render(msg))
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

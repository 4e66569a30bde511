package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskmaster/todos/internal/domain/dates"
	"github.com/taskmaster/todos/internal/domain/entities"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// Palette values, light then dark.
var (
	colorAccent  = [2]string{"#5A56E0", "#7D79F6"}
	colorMuted   = [2]string{"#8A8A8A", "#626262"}
	colorOverdue = [2]string{"#D7263D", "#FF5F6D"}
	colorSuccess = [2]string{"#2E8B57", "#43BF6D"}
)

type styles struct {
	header  lipgloss.Style
	title   lipgloss.Style
	done    lipgloss.Style
	muted   lipgloss.Style
	overdue lipgloss.Style
	success lipgloss.Style
}

// themeColor picks a fixed color for light and dark themes and lets the
// terminal decide for system.
func themeColor(theme string, pair [2]string) lipgloss.TerminalColor {
	switch theme {
	case "light":
		return lipgloss.Color(pair[0])
	case "dark":
		return lipgloss.Color(pair[1])
	default:
		return lipgloss.AdaptiveColor{Light: pair[0], Dark: pair[1]}
	}
}

func newStyles(theme string) styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(themeColor(theme, colorAccent)),
		title:   lipgloss.NewStyle(),
		done:    lipgloss.NewStyle().Strikethrough(true).Foreground(themeColor(theme, colorMuted)),
		muted:   lipgloss.NewStyle().Foreground(themeColor(theme, colorMuted)),
		overdue: lipgloss.NewStyle().Bold(true).Foreground(themeColor(theme, colorOverdue)),
		success: lipgloss.NewStyle().Foreground(themeColor(theme, colorSuccess)),
	}
}

// printer renders command results as styled tables or as JSON/YAML.
type printer struct {
	out    io.Writer
	format string
	styles styles
	now    time.Time
}

func newPrinter(cmd *cobra.Command, theme string, now time.Time) (*printer, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case formatTable, formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q, want table, json or yaml", format)
	}
	return &printer{
		out:    cmd.OutOrStdout(),
		format: format,
		styles: newStyles(theme),
		now:    now,
	}, nil
}

func (p *printer) structured() bool {
	return p.format != formatTable
}

func (p *printer) encode(v interface{}) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", p.format)
}

// todos prints one todo per line. listNames maps list ids to names.
func (p *printer) todos(todos []entities.Todo, listNames map[string]string) error {
	if p.structured() {
		if todos == nil {
			todos = []entities.Todo{}
		}
		return p.encode(todos)
	}

	if len(todos) == 0 {
		_, err := fmt.Fprintln(p.out, p.styles.muted.Render("Nothing to do."))
		return err
	}

	rows := make([][]string, 0, len(todos)+1)
	rows = append(rows, []string{"", "ID", "TITLE", "DUE", "REPEAT", "LIST"})
	for _, t := range todos {
		rows = append(rows, p.todoRow(t, listNames))
	}
	return p.table(rows)
}

func (p *printer) todoRow(t entities.Todo, listNames map[string]string) []string {
	check := "[ ]"
	title := p.styles.title.Render(t.Title)
	if t.Completed {
		check = p.styles.success.Render("[x]")
		title = p.styles.done.Render(t.Title)
	}

	due := ""
	if t.DueDate != nil {
		due = dates.FormatDue(*t.DueDate, p.now)
		if !t.Completed && dates.IsOverdue(*t.DueDate, p.now) {
			due = p.styles.overdue.Render(due)
		}
		if t.HasReminder() {
			due += " *"
		}
	}

	repeat := ""
	if t.Repeat != entities.RepeatNever && t.Repeat != "" {
		repeat = string(t.Repeat)
	}

	list := ""
	if t.ListID != nil {
		list = listNames[*t.ListID]
	}

	return []string{check, p.styles.muted.Render(t.ID), title, due, repeat, list}
}

func (p *printer) lists(lists []entities.List) error {
	if p.structured() {
		if lists == nil {
			lists = []entities.List{}
		}
		return p.encode(lists)
	}

	rows := [][]string{{"ID", "NAME", ""}}
	for _, l := range lists {
		marker := ""
		if l.IsDefault {
			marker = p.styles.success.Render("default")
		}
		rows = append(rows, []string{p.styles.muted.Render(l.ID), l.Name, marker})
	}
	return p.table(rows)
}

// message prints a confirmation line, or v in structured formats.
func (p *printer) message(v interface{}, format string, args ...interface{}) error {
	if p.structured() {
		return p.encode(v)
	}
	_, err := fmt.Fprintln(p.out, p.styles.success.Render(fmt.Sprintf(format, args...)))
	return err
}

// table pads columns by rendered width so styled cells stay aligned. The
// first row is the header.
func (p *printer) table(rows [][]string) error {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if r == 0 {
				cell = p.styles.header.Render(cell)
			}
			cells[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		if _, err := fmt.Fprintln(p.out, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/inoue/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

const (
	headerHeight = 2
	footerHeight = 2
)

// Model is the interactive history browser.
type Model struct {
	records []model.DownloadRecord
	rows    [][]string
	table   table.Model

	width  int
	height int
}

// NewModel builds a browser over records, with relative times taken from now.
func NewModel(records []model.DownloadRecord, now time.Time) *Model {
	m := &Model{
		records: records,
		rows:    rows(records, now),
	}
	m.table = buildTable(m.rows, 0, 1)
	m.table.Focus()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cursor := m.table.Cursor()
		m.table = buildTable(m.rows, m.width, m.height-headerHeight-footerHeight)
		m.table.SetCursor(cursor)
		m.table.Focus()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyHeight := maxInt(1, m.height-headerHeight-footerHeight)
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.table.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Selected returns the record under the cursor.
func (m *Model) Selected() (model.DownloadRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return model.DownloadRecord{}, false
	}
	return m.records[i], true
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("Saved replays")
	count := headerStyle.Render(fmt.Sprintf("%d recorded", len(m.records)))
	return title + "  " + count
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("↑/↓ move • g/G top/bottom • q quit")
	rec, ok := m.Selected()
	if !ok {
		return help
	}
	return pathStyle.Render(rec.Path) + "\n" + help
}

func buildTable(cells [][]string, width, height int) table.Model {
	widths := columnWidths(cells, width)
	columns := make([]table.Column, len(headers))
	for i, title := range headers {
		columns[i] = table.Column{Title: title, Width: widths[i]}
	}
	tableRows := make([]table.Row, 0, len(cells))
	for _, row := range cells {
		tableRows = append(tableRows, table.Row(row))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

// columnWidths sizes every column to its content and gives the path column
// whatever room is left.
func columnWidths(cells [][]string, width int) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range cells {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := displayWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if width <= 0 {
		return widths
	}
	last := len(widths) - 1
	used := 0
	for i := 0; i < last; i++ {
		used += widths[i] + 1
	}
	if rest := width - used - 1; rest > displayWidth(headers[last]) && rest < widths[last] {
		widths[last] = rest
	}
	return widths
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if lineWidth := lipgloss.Width(line); lineWidth < width {
			lines[i] = line + strings.Repeat(" ", width-lineWidth)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

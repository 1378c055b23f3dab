package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frer-max/fassr/internal/api"
)

// renderBoard draws the header, filter tabs, order table, detail pane and
// footer.
func (m Model) renderBoard() string {
	styles := m.theme.Styles()
	header := m.renderHeader(styles)
	tabs := m.renderTabs(styles)
	footer := m.renderFooter(styles)

	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(tabs)-lipgloss.Height(footer), 3)
	var body string
	if m.compact() {
		tableHeight := max(bodyHeight/2, 3)
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.renderTable(styles, m.width, tableHeight),
			m.renderDetailPane(styles, m.width, bodyHeight-tableHeight),
		)
	} else {
		tableWidth := m.width * 3 / 5
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderTable(styles, tableWidth, bodyHeight),
			m.renderDetailPane(styles, m.width-tableWidth, bodyHeight),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, footer)
}

func (m Model) compact() bool {
	return m.width < LayoutCompactWidth
}

func (m Model) renderHeader(styles Styles) string {
	name := "fassr"
	if m.settings.RestaurantName != nil && strings.TrimSpace(*m.settings.RestaurantName) != "" {
		name = strings.TrimSpace(*m.settings.RestaurantName)
	}
	parts := []string{styles.Logo.Render(name)}

	// Unknown opening state stays hidden rather than guessed.
	if m.settings.IsOpen != nil {
		if *m.settings.IsOpen {
			parts = append(parts, styles.SuccessText.Render("open"))
		} else {
			parts = append(parts, styles.DangerText.Render("closed"))
		}
	}

	if len(m.orders) > 0 {
		today, month := api.Revenue(m.orders, m.now)
		parts = append(parts, styles.MutedText.Render("today "+formatMoney(m.settings, today)+" / month "+formatMoney(m.settings, month)))
	}

	if m.stream != nil {
		if m.stream.Connected() {
			parts = append(parts, styles.SuccessText.Render("live"))
		} else {
			parts = append(parts, styles.WarningText.Render("reconnecting"))
		}
	}

	switch {
	case m.status.IsOffline():
		parts = append(parts, styles.DangerText.Render("offline"))
	case m.status.Restored && !m.status.Loaded:
		parts = append(parts, styles.WarningText.Render("cached"))
	}
	if !m.status.LastUpdated.IsZero() {
		age := humanizeDuration(m.now.Sub(m.status.LastUpdated))
		if age != "now" {
			age += " ago"
		}
		parts = append(parts, styles.MutedText.Render("updated "+age))
	}
	if m.loading {
		parts = append(parts, styles.InfoText.Render("loading..."))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTabs(styles Styles) string {
	counts := countByFilter(m.orders)
	tabs := make([]string, 0, len(filterOrder))
	for _, f := range filterOrder {
		label := fmt.Sprintf("%s %d", f.Label(), counts[f])
		if f == m.filter {
			tabs = append(tabs, styles.Selected.Padding(0, 1).Render(label))
			continue
		}
		tabs = append(tabs, styles.MutedText.Padding(0, 1).Render(label))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.searching {
		line += "  " + m.search.View()
	} else if m.pager != nil && m.pager.Query() != "" {
		line += "  " + styles.AccentText.Render("search: "+m.pager.Query())
	}
	return lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(line)
}

func (m Model) renderTable(styles Styles, width, height int) string {
	visible := m.visible()
	showPhone := width >= LayoutPhoneWidth

	const (
		idWidth     = 6
		statusWidth = 11
		ageWidth    = 5
		totalWidth  = 12
		phoneWidth  = 14
	)
	nameWidth := width - idWidth - statusWidth - ageWidth - totalWidth - 6
	if showPhone {
		nameWidth -= phoneWidth + 1
	}
	nameWidth = max(nameWidth, 6)

	cols := []string{pad("#", idWidth), pad("Status", statusWidth), pad("Customer", nameWidth)}
	if showPhone {
		cols = append(cols, pad("Phone", phoneWidth))
	}
	cols = append(cols, pad("Total", totalWidth), pad("Age", ageWidth))
	lines := []string{styles.FaintText.Render(strings.Join(cols, " "))}

	if len(visible) == 0 {
		empty := "no orders"
		if len(m.orders) > 0 {
			empty = "no orders on this tab"
		}
		lines = append(lines, styles.MutedText.Render(empty))
	}

	rows := max(height-1, 1)
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := min(start+rows, len(visible))
	for i := start; i < end; i++ {
		o := visible[i]
		status := styles.StatusStyle(string(o.Status)).Render(pad(string(o.Status), statusWidth-2))
		cells := []string{pad(itoa(o.ID), idWidth), status, pad(customerName(o), nameWidth)}
		if showPhone {
			cells = append(cells, pad(o.Customer.Phone, phoneWidth))
		}
		cells = append(cells,
			pad(formatMoney(m.settings, o.Total), totalWidth),
			pad(humanizeDuration(m.now.Sub(o.CreatedAt)), ageWidth),
		)
		if o.ID == 0 || o.ClientKey != "" {
			cells[0] = pad("…", idWidth)
		}
		row := strings.Join(cells, " ")
		if i == m.selected {
			row = styles.Selected.Render(row)
		} else if o.Rating != nil && !o.RatingSeen {
			row = styles.AccentText.Render(row)
		}
		lines = append(lines, row)
	}
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter(styles Styles) string {
	var parts []string
	loaded := len(m.orders)
	total := max(m.cursor.Total, loaded)
	summary := fmt.Sprintf("showing %d of %d", loaded, total)
	if m.cursor.HasMore() {
		summary += " (m for more)"
	}
	parts = append(parts, styles.MutedText.Render(summary))

	if m.flash != "" {
		if m.flashErr {
			parts = append(parts, styles.DangerText.Render(m.flash))
		} else {
			parts = append(parts, styles.SuccessText.Render(m.flash))
		}
	} else if err := m.status.LastError; err != nil {
		parts = append(parts, styles.WarningText.Render(describeError("last refresh", err)))
	}

	help := m.help.ShortHelpView(m.keys.ShortHelp())
	return styles.Footer.Width(m.width).Render(strings.Join(parts, "  ") + "\n" + help)
}

func statusLine(o api.Order) string {
	line := string(o.Status)
	if next, ok := o.Status.Next(); ok {
		line += " → " + string(next)
	}
	return line
}

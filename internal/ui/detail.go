package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// resize fits the viewports to the current window.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.logs.Width = m.width
	m.logs.Height = max(m.height-2, 1)

	bodyHeight := max(m.height-5, 3)
	if m.compact() {
		m.detail.Width = m.width - 2
		m.detail.Height = max(bodyHeight-max(bodyHeight/2, 3)-2, 1)
	} else {
		m.detail.Width = m.width - m.width*3/5 - 2
		m.detail.Height = max(bodyHeight-2, 1)
	}
	m.updateDetail()
}

// updateDetail refreshes the detail viewport for the selected order.
func (m *Model) updateDetail() {
	if !m.ready {
		return
	}
	m.detail.SetContent(m.detailContent())
}

func (m Model) detailContent() string {
	o, ok := m.current()
	if !ok {
		return ""
	}
	styles := m.theme.Styles()
	var b strings.Builder

	title := "Order #" + itoa(o.ID)
	if o.ClientKey != "" {
		title = "Order (sending)"
	}
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("  ")
	b.WriteString(styles.StatusStyle(string(o.Status)).Render(string(o.Status)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(statusLine(o)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(styles.FaintText.Render(pad(label, 10)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	field("Customer", customerName(o))
	field("Phone", o.Customer.Phone)
	field("Address", o.Customer.Address)
	field("Type", o.OrderType)
	if !o.CreatedAt.IsZero() {
		field("Placed", o.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	if o.CompletedAt != nil {
		field("Delivered", o.CompletedAt.Local().Format("Jan 2 15:04"))
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Items (%d)", itemCount(o))))
	b.WriteString("\n")
	for _, item := range o.Items {
		name := item.Name
		if item.SizeName != "" {
			name += " (" + item.SizeName + ")"
		}
		fmt.Fprintf(&b, "%dx %s  %s\n", item.Quantity, name,
			styles.MutedText.Render(formatMoney(m.settings, item.Price*float64(item.Quantity))))
	}
	b.WriteString("\n")
	if o.DeliveryCost > 0 {
		field("Subtotal", formatMoney(m.settings, o.Subtotal))
		field("Delivery", formatMoney(m.settings, o.DeliveryCost))
	}
	field("Total", formatMoney(m.settings, o.Total))

	if o.Notes != "" {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Notes"))
		b.WriteString("\n")
		b.WriteString(o.Notes)
		b.WriteString("\n")
	}
	if o.Rating != nil {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Rating"))
		if !o.RatingSeen {
			b.WriteString(" ")
			b.WriteString(styles.WarningText.Render("new"))
		}
		b.WriteString("\n")
		b.WriteString(strings.Repeat("★", *o.Rating) + strings.Repeat("☆", max(5-*o.Rating, 0)))
		b.WriteString("\n")
		if o.Review != "" {
			b.WriteString(o.Review)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderDetailPane(styles Styles, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Width(max(width-2, 1)).
		Height(max(height-2, 1))
	if _, ok := m.current(); !ok {
		return box.Render(styles.MutedText.Render("select an order"))
	}
	return box.Render(m.detail.View())
}

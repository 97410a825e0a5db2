package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blacktop/superchat/internal/preview"
	"github.com/blacktop/superchat/internal/superchat"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusedLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	disabled     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
)

// tierColors follows the Super Chat colour of each price tier.
var tierColors = []struct {
	min   int
	color lipgloss.Color
}{
	{10000, lipgloss.Color("#E62117")},
	{5000, lipgloss.Color("#C2185B")},
	{2000, lipgloss.Color("#E65100")},
	{1000, lipgloss.Color("#FFCA28")},
	{500, lipgloss.Color("#1DE9B6")},
	{200, lipgloss.Color("#00E5FF")},
	{0, lipgloss.Color("#1E88E5")},
}

func tierColor(price int) lipgloss.Color {
	for _, t := range tierColors {
		if price >= t.min {
			return t.color
		}
	}
	return tierColors[len(tierColors)-1].color
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	leftWidth := m.leftWidth()
	rightWidth := m.width - leftWidth
	height := m.height - 1

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.leftPanelView(leftWidth, height),
		m.rightPanelView(rightWidth, height),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.help.View(m.keys))
}

func (m Model) leftWidth() int {
	return int(float64(m.width) * 0.4)
}

func (m Model) previewWidth() int {
	if m.width == 0 {
		return 0
	}
	return m.width - m.leftWidth() - 4
}

func (m Model) label(f field, text string) string {
	if m.focus == f && !m.picking {
		return focusedLabel.Render("> " + text)
	}
	return labelStyle.Render("  " + text)
}

func (m Model) leftPanelView(width, height int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true)

	if m.picking {
		return style.Render(fmt.Sprintf("%s\n\n%s", titleStyle.Render("Pick an icon"), m.picker.View()))
	}

	inner := width - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render("Super Chat Maker"))
	b.WriteString("\n\n")

	icon := "?"
	if m.iconPath != "" {
		icon = runewidth.Truncate(filepath.Base(m.iconPath), max(inner-4, 8), "…")
	}
	b.WriteString(m.label(fieldIcon, "Icon") + "\n  " + icon + "\n\n")
	b.WriteString(m.label(fieldName, "Name") + "\n  " + m.name.View() + "\n\n")

	if m.messageEnabled() {
		b.WriteString(m.label(fieldMessage, "Message") + "\n  " + m.message.View() + "\n\n")
	} else {
		msg := m.message.Value()
		if msg == "" {
			msg = fmt.Sprintf("available from ￥%d", superchat.MessageMinPrice)
		}
		b.WriteString(disabled.Render("  Message") + "\n  " + disabled.Render(msg) + "\n\n")
	}

	price := m.formPrice()
	yen := lipgloss.NewStyle().Foreground(tierColor(price)).Render("￥")
	b.WriteString(m.label(fieldPrice, "Price") + "\n  " + yen + m.price.View() + " JPY\n\n")
	b.WriteString(m.label(fieldSlider, "Tier") + "\n  " + sliderView(superchat.Position(price), tierColor(price)) + "\n\n")
	b.WriteString(m.exportButton() + "\n")

	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	return style.Render(b.String())
}

func sliderView(pos int, c lipgloss.Color) string {
	knob := lipgloss.NewStyle().Foreground(c).Render("●")
	var b strings.Builder
	for i := range superchat.Ladder {
		if i > 0 {
			if i <= pos {
				b.WriteString(lipgloss.NewStyle().Foreground(c).Render("━━"))
			} else {
				b.WriteString(disabled.Render("──"))
			}
		}
		if i == pos {
			b.WriteString(knob)
		} else {
			b.WriteString(disabled.Render("·"))
		}
	}
	return b.String()
}

func (m Model) exportButton() string {
	text := "[ Save image ]"
	if m.exporter != nil && m.exporter.CanShare() {
		text = "[ Share ]"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	if m.focus == fieldExport {
		style = style.Background(lipgloss.Color("7"))
	}
	if m.exporting {
		return disabled.Render(text) + " " + m.spinner.View()
	}
	return style.Render(text)
}

// previewFrame mutes the image whenever it doesn't belong to the current
// snapshot, including after a failed refresh.
func (m Model) previewFrame() lipgloss.Style {
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205"))
	if m.tracker.State() == preview.Failed {
		frame = frame.BorderForeground(lipgloss.Color("204"))
	}
	if m.tracker.Muted() {
		frame = frame.Faint(true)
		if m.tracker.State() != preview.Failed {
			frame = frame.BorderForeground(lipgloss.Color("240"))
		}
	}
	return frame
}

func (m Model) rightPanelView(width, height int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	frame := m.previewFrame()

	var caption string
	switch m.tracker.State() {
	case preview.Loading:
		caption = fmt.Sprintf("%s Updating preview...", m.spinner.View())
	case preview.Failed:
		caption = errorStyle.Render(fmt.Sprintf("Preview failed: %v (ctrl+r to retry)", m.tracker.Err()))
	}

	var body string
	switch {
	case m.tracker.ImageURL() == "":
		body = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(max(width-4, 1)).
			Height(previewRows(max(width-4, 1))).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Image will be displayed here")
	case m.protocol == "none":
		body = fmt.Sprintf("preview ready (%s)", m.tracker.ImageURL())
	case m.renderErr != nil:
		body = errorStyle.Render(m.renderErr.Error())
	default:
		body = m.rendered
	}

	content := frame.Render(body)
	if caption != "" {
		content = lipgloss.JoinVertical(lipgloss.Center, content, caption)
	}
	return style.Render(content)
}

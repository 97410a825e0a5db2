// Package tui is the interactive Super Chat form.
package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blacktop/superchat/internal/blob"
	"github.com/blacktop/superchat/internal/config"
	"github.com/blacktop/superchat/internal/export"
	"github.com/blacktop/superchat/internal/preview"
	"github.com/blacktop/superchat/internal/superchat"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Renderer produces preview images.
type Renderer interface {
	Render(ctx context.Context, p superchat.Params) (*superchat.Image, error)
}

type Options struct {
	Renderer Renderer
	Exporter *export.Exporter
	Blobs    *blob.Store
	Initial  superchat.Params
	Debounce time.Duration
	Timeout  time.Duration
	Protocol string
	Logger   *log.Logger
}

type field int

const (
	fieldIcon field = iota
	fieldName
	fieldMessage
	fieldPrice
	fieldSlider
	fieldExport
	fieldCount
)

type previewMsg struct {
	id  uint64
	img *superchat.Image
	err error
}

type exportDoneMsg struct {
	res export.Result
	err error
}

type clearStatusMsg struct{ id int }

type Model struct {
	renderer Renderer
	exporter *export.Exporter
	blobs    *blob.Store
	tracker  *preview.Tracker
	timeout  time.Duration
	protocol string
	logger   *log.Logger

	iconPath string
	name     textinput.Model
	message  textinput.Model
	price    textinput.Model
	picker   filepicker.Model
	picking  bool
	focus    field

	debounce  debouncer
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	exporting bool
	status    string
	statusID  int

	width  int
	height int

	// cached terminal rendering of the displayed image
	rendered    string
	renderedURL string
	renderedW   int
	renderErr   error
}

func New(opts Options) Model {
	if opts.Blobs == nil {
		opts.Blobs = blob.NewStore()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultQuietInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = superchat.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Initial.Price <= 0 {
		opts.Initial.Price = superchat.DefaultPrice
	}

	name := textinput.New()
	name.Placeholder = "Enter your name"
	name.CharLimit = 64
	name.SetValue(opts.Initial.Name)

	message := textinput.New()
	message.Placeholder = "Enter a message"
	message.CharLimit = 200
	message.SetValue(opts.Initial.Message)

	price := textinput.New()
	price.Placeholder = strconv.Itoa(superchat.DefaultPrice)
	price.CharLimit = 5
	price.SetValue(strconv.Itoa(opts.Initial.Price))

	fp := filepicker.New()
	fp.AllowedTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		renderer: opts.Renderer,
		exporter: opts.Exporter,
		blobs:    opts.Blobs,
		tracker:  preview.New(opts.Blobs),
		timeout:  opts.Timeout,
		protocol: opts.Protocol,
		logger:   opts.Logger,
		iconPath: opts.Initial.Icon,
		name:     name,
		message:  message,
		price:    price,
		picker:   fp,
		debounce: debouncer{interval: opts.Debounce},
		spinner:  s,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
	m.focus = fieldName
	m.name.Focus()

	m.tracker.Begin(m.formParams())
	return m
}

func (m Model) Init() tea.Cmd {
	snap, _ := m.tracker.Current()
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.picker.Init(), m.renderCmd(snap))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		m.refreshImage()
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case commitMsg:
		if !m.debounce.settled(msg) {
			return m, nil
		}
		cmd := m.commit()
		return m, cmd
	case previewMsg:
		cmd := m.handlePreview(msg)
		return m, cmd
	case exportDoneMsg:
		m.exporting = false
		cmd := m.handleExport(msg)
		return m, cmd
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	cmds = append(cmds, cmd)
	cmds = append(cmds, m.updateFocused(msg))
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.picking {
		if key.Matches(msg, m.keys.Cancel) {
			m.picking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.picking = false
			m.iconPath = path
			m.logger.Debug("Icon selected", "path", path)
			tick := m.debounce.touch()
			return m, tea.Batch(cmd, tick)
		}
		if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
			clearCmd := m.setStatus(fmt.Sprintf("%s is not an image", path), 3*time.Second)
			return m, tea.Batch(cmd, clearCmd)
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		cmd := m.moveFocus(1)
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		cmd := m.moveFocus(-1)
		return m, cmd
	case key.Matches(msg, m.keys.Export):
		cmd := m.startExport()
		return m, cmd
	case key.Matches(msg, m.keys.Retry):
		if snap, ok := m.tracker.Retry(); ok {
			m.logger.Debug("Retrying preview", "id", snap.ID)
			return m, m.renderCmd(snap)
		}
		return m, nil
	}

	switch m.focus {
	case fieldIcon:
		switch {
		case key.Matches(msg, m.keys.Select):
			m.picking = true
			return m, m.picker.Init()
		case key.Matches(msg, m.keys.Clear):
			if m.iconPath == "" {
				return m, nil
			}
			m.iconPath = ""
			cmd := m.debounce.touch()
			return m, cmd
		}
		return m, nil
	case fieldSlider:
		pos := superchat.Position(m.formPrice())
		switch {
		case key.Matches(msg, m.keys.Left):
			pos--
		case key.Matches(msg, m.keys.Right):
			pos++
		default:
			return m, nil
		}
		price := superchat.PriceAt(pos)
		if price == m.formPrice() {
			return m, nil
		}
		m.price.SetValue(strconv.Itoa(price))
		cmd := m.debounce.touch()
		return m, cmd
	case fieldExport:
		if key.Matches(msg, m.keys.Select) {
			cmd := m.startExport()
			return m, cmd
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Select) {
		cmd := m.moveFocus(1)
		return m, cmd
	}

	before := m.focusedValue()
	cmd := m.updateFocused(msg)
	if m.focusedValue() == before {
		return m, cmd
	}
	tick := m.debounce.touch()
	return m, tea.Batch(cmd, tick)
}

func (m Model) focusedValue() string {
	switch m.focus {
	case fieldName:
		return m.name.Value()
	case fieldMessage:
		return m.message.Value()
	case fieldPrice:
		return m.price.Value()
	}
	return ""
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldMessage:
		m.message, cmd = m.message.Update(msg)
	case fieldPrice:
		m.price, cmd = m.price.Update(msg)
	}
	return cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	next := m.focus
	for {
		next = (next + field(delta) + fieldCount) % fieldCount
		if next != fieldMessage || m.messageEnabled() {
			break
		}
	}
	m.name.Blur()
	m.message.Blur()
	m.price.Blur()
	m.focus = next
	switch next {
	case fieldName:
		return m.name.Focus()
	case fieldMessage:
		return m.message.Focus()
	case fieldPrice:
		return m.price.Focus()
	}
	return nil
}

func (m Model) messageEnabled() bool {
	return superchat.Params{Price: m.formPrice()}.MessageEnabled()
}

// formPrice is the typed price clamped to the valid range, or the last
// committed price while the field doesn't hold a number.
func (m Model) formPrice() int {
	v, err := strconv.Atoi(strings.TrimSpace(m.price.Value()))
	if err != nil || v <= 0 {
		if snap, ok := m.tracker.Current(); ok {
			return snap.Params.Price
		}
		return superchat.DefaultPrice
	}
	return superchat.ClampPrice(v)
}

// formParams reads the form as it is right now. A disabled message is left
// out, just like a disabled form control.
func (m Model) formParams() superchat.Params {
	p := superchat.Params{
		Name:  strings.TrimSpace(m.name.Value()),
		Icon:  m.iconPath,
		Price: m.formPrice(),
	}
	if p.MessageEnabled() {
		p.Message = strings.TrimSpace(m.message.Value())
	}
	return p
}

func (m *Model) commit() tea.Cmd {
	p := m.formParams()
	if snap, ok := m.tracker.Current(); ok && snap.Params == p && m.tracker.State() != preview.Failed {
		return nil
	}
	snap := m.tracker.Begin(p)
	m.logger.Debug("Form committed", "id", snap.ID, "name", p.Name, "price", p.Price, "icon", p.Icon != "")
	return m.renderCmd(snap)
}

func (m Model) renderCmd(snap preview.Snapshot) tea.Cmd {
	r, timeout := m.renderer, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		img, err := r.Render(ctx, snap.Params)
		return previewMsg{id: snap.ID, img: img, err: err}
	}
}

func (m *Model) handlePreview(msg previewMsg) tea.Cmd {
	if msg.err != nil {
		if m.tracker.Fail(msg.id, msg.err) {
			m.logger.Error("Preview failed", "id", msg.id, "err", msg.err)
		}
		return nil
	}
	url := m.blobs.Create(msg.img.Data, msg.img.ContentType)
	if !m.tracker.Resolve(msg.id, url) {
		m.logger.Debug("Dropped stale preview", "id", msg.id)
		return nil
	}
	m.refreshImage()
	return nil
}

func (m *Model) startExport() tea.Cmd {
	if m.exporting || m.exporter == nil {
		return nil
	}
	snap, ok := m.tracker.Current()
	if !ok {
		return nil
	}
	m.exporting = true
	e, timeout := m.exporter, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := e.Run(ctx, snap.Params)
		return exportDoneMsg{res: res, err: err}
	}
}

func (m *Model) handleExport(msg exportDoneMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		m.logger.Error("Export failed", "err", msg.err)
		return m.setStatus("Export failed", 4*time.Second)
	case msg.res.Shared:
		return m.setStatus(fmt.Sprintf("Link copied, image saved to %s", msg.res.Path), 4*time.Second)
	case msg.res.Path != "":
		return m.setStatus(fmt.Sprintf("Image saved: %s", msg.res.Path), 4*time.Second)
	}
	return nil
}

func (m *Model) setStatus(status string, after time.Duration) tea.Cmd {
	m.status = status
	m.statusID++
	id := m.statusID
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

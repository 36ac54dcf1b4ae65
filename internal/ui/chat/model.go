// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/ragterm/internal/files"
	"github.com/jeranaias/ragterm/internal/session"
	"github.com/jeranaias/ragterm/internal/ui/styles"
)

// maxInputRows is how tall the input grows before it scrolls.
const maxInputRows = 6

// =============================================================================
// OPTIONS
// =============================================================================

// Backend is the RAG service plus a reachability probe for the header.
type Backend interface {
	session.Backend
	CheckReachable(ctx context.Context) error
}

// Options configures the chat view.
type Options struct {
	// Prompt prefixes every user line, e.g. "me@agentic-rag:~$ ".
	Prompt string

	// Markdown renders agent replies with glamour.
	Markdown bool

	// ShowStatus shows the status label while a reply is pending.
	ShowStatus bool

	// Filter limits which files the picker offers.
	Filter files.Filter

	// StartDir is where the picker opens (default: working directory).
	StartDir string

	// ExclusiveUploads rejects an upload while another is in flight.
	ExclusiveUploads bool

	Logger *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state   session.State
	backend Backend
	opts    Options
	logger  *zap.Logger

	theme  *styles.Theme
	keyMap KeyMap

	// Components
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	// File picker overlay
	picker     filepicker.Model
	pickerOpen bool
	picked     []string

	backendStatus backendState

	width  int
	height int
	ready  bool
}

// New creates a chat model around a fresh session.
func New(b Backend, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Filter.Extensions() == nil {
		opts.Filter = files.NewFilter()
	}

	ta := textarea.New()
	ta.Prompt = ""
	ta.Placeholder = "Ask a question or type /upload..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 8192
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	state := session.New()
	state.ExclusiveUploads = opts.ExclusiveUploads

	m := Model{
		state:    state,
		backend:  b,
		opts:     opts,
		logger:   opts.Logger.Named("tui"),
		theme:    theme,
		keyMap:   DefaultKeyMap(),
		input:    ta,
		viewport: vp,
		spinner:  sp,
	}
	if opts.Markdown {
		m.markdown = newMarkdownRenderer(vp.Width - 4)
	}
	m.updateViewport()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the backend probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, CheckBackendCmd(m.backend))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ChatSettledMsg:
		return m.handleChatSettled(msg)

	case UploadSettledMsg:
		return m.handleUploadSettled(msg)

	case BackendStatusMsg:
		if msg.Online {
			m.backendStatus = backendOnline
		} else {
			m.backendStatus = backendOffline
			m.logger.Warn("backend unreachable", zap.Error(msg.Error))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.IsProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateViewport()
		return m, cmd

	default:
		var cmds []tea.Cmd
		if m.pickerOpen {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// State returns the current session state.
func (m Model) State() session.State {
	return m.state
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(msg.Width, msg.Height)

	m.input.SetWidth(max(msg.Width-4, 10))
	if m.opts.Markdown {
		m.markdown = newMarkdownRenderer(msg.Width - 6)
	}
	m.layout()

	var cmd tea.Cmd
	if m.pickerOpen {
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

// layout sizes the viewport around the fixed rows.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	// header (2) + status (1) + input border (1) + input rows + help (1)
	fixed := 2 + 1 + 1 + m.input.Height() + 1
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-fixed, 3)
	m.picker.Height = max(m.viewport.Height-4, 3)
	m.updateViewport()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.pickerOpen {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keyMap.Newline):
		if m.state.IsProcessing {
			return m, nil
		}
		m.input.InsertString("\n")
		m.resizeInput()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.state.IsProcessing {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resizeInput()
	return m, cmd
}

// submitInput runs the current input through the session interpreter.
// Ignored input stays in the buffer.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	next, eff := session.Submit(m.state, m.input.Value())
	if eff == nil {
		return m, nil
	}
	m.state = next
	m.input.Reset()
	m.resizeInput()

	switch e := eff.(type) {
	case session.OpenFilePicker:
		return m.openPicker()

	case session.SendChat:
		m.logger.Debug("chat request started", zap.String("placeholder", e.PlaceholderID))
		m.input.Blur()
		m.updateViewport()
		return m, tea.Batch(ChatCmd(m.backend, e), m.spinner.Tick)
	}

	m.updateViewport()
	return m, nil
}

func (m Model) handleChatSettled(msg ChatSettledMsg) (tea.Model, tea.Cmd) {
	if msg.Result.Err != nil {
		m.logger.Warn("chat request failed", zap.String("placeholder", msg.Result.PlaceholderID), zap.Error(msg.Result.Err))
	} else {
		m.backendStatus = backendOnline
	}

	m.state = session.SettleChat(m.state, msg.Result)
	m.updateViewport()

	if m.state.IsProcessing || m.pickerOpen {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m Model) handleUploadSettled(msg UploadSettledMsg) (tea.Model, tea.Cmd) {
	if msg.Result.Err != nil {
		m.logger.Warn("upload failed", zap.Int("files", msg.Result.Files), zap.Error(msg.Result.Err))
	} else {
		m.logger.Info("upload finished", zap.Int("files", msg.Result.Files), zap.Int("chunks", msg.Result.Chunks))
	}
	m.state = session.SettleUpload(m.state, msg.Result)
	m.updateViewport()
	return m, nil
}

// =============================================================================
// FILE PICKER
// =============================================================================

func (m Model) openPicker() (tea.Model, tea.Cmd) {
	fp := filepicker.New()
	fp.AllowedTypes = pickerTypes(m.opts.Filter)
	fp.CurrentDirectory = m.opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	fp.Height = max(m.viewport.Height-4, 3)
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(styles.Cyan)
	fp.Styles.Selected = fp.Styles.Selected.Foreground(styles.Cyan)

	m.picker = fp
	m.picked = nil
	m.pickerOpen = true
	m.input.Blur()
	return m, m.picker.Init()
}

// pickerTypes lists the filter's extensions in lower and upper case. The
// picker matches suffixes exactly while the filter ignores case.
func pickerTypes(f files.Filter) []string {
	exts := f.Extensions()
	types := make([]string, 0, 2*len(exts))
	for _, ext := range exts {
		types = append(types, ext)
		if upper := strings.ToUpper(ext); upper != ext {
			types = append(types, upper)
		}
	}
	return types
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.PickerCancel):
		return m.closePicker(nil)

	case key.Matches(msg, m.keyMap.PickerConfirm):
		return m.closePicker(m.picked)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if key.Matches(msg, m.keyMap.PickerToggle) {
		if ok, path := m.picker.DidSelectFile(msg); ok && m.opts.Filter.Allows(path) {
			m.togglePicked(path)
		}
	}
	return m, cmd
}

// togglePicked adds path to the picked list, or removes it if present.
func (m *Model) togglePicked(path string) {
	if i := slices.Index(m.picked, path); i >= 0 {
		m.picked = slices.Delete(slices.Clone(m.picked), i, i+1)
		return
	}
	m.picked = append(slices.Clone(m.picked), path)
}

// closePicker hides the picker and uploads paths as one batch. An empty
// list uploads nothing.
func (m Model) closePicker(paths []string) (tea.Model, tea.Cmd) {
	m.pickerOpen = false
	m.picked = nil

	m.state = session.SelectFiles(m.state, paths...)
	next, eff := session.BeginUpload(m.state)
	m.state = next

	var cmds []tea.Cmd
	if !m.state.IsProcessing {
		cmds = append(cmds, m.input.Focus())
	}
	if eff == nil {
		m.state = session.ClearSelection(m.state)
	} else {
		m.logger.Info("upload started", zap.Int("files", len(eff.Files)))
		cmds = append(cmds, UploadCmd(m.backend, *eff))
	}

	m.updateViewport()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// HELPERS
// =============================================================================

// resizeInput grows the input with its content up to maxInputRows.
func (m *Model) resizeInput() {
	rows := min(max(m.input.LineCount(), 1), maxInputRows)
	if rows != m.input.Height() {
		m.input.SetHeight(rows)
		m.layout()
	}
}

// updateViewport re-renders the transcript and follows the bottom if the
// user was already there.
func (m *Model) updateViewport() {
	atBottom := m.viewport.AtBottom() || m.viewport.TotalLineCount() <= m.viewport.Height
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

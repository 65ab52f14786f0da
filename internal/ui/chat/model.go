// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/syntaxchat/internal/backend"
	"github.com/jeranaias/syntaxchat/internal/config"
	"github.com/jeranaias/syntaxchat/internal/guard"
	"github.com/jeranaias/syntaxchat/internal/logging"
	"github.com/jeranaias/syntaxchat/internal/model"
	"github.com/jeranaias/syntaxchat/internal/msglog"
	"github.com/jeranaias/syntaxchat/internal/session"
	"github.com/jeranaias/syntaxchat/internal/turn"
	"github.com/jeranaias/syntaxchat/internal/ui/components"
	"github.com/jeranaias/syntaxchat/internal/ui/styles"
)

// Backend is everything the chat view calls on the server.
type Backend interface {
	turn.Chatter
	Personalities(ctx context.Context) ([]model.Persona, error)
	Conversations(ctx context.Context) ([]model.ConversationSummary, error)
	Conversation(ctx context.Context, threadID string) ([]backend.HistoryMessage, error)
	Feedback(ctx context.Context, req backend.FeedbackRequest) error
	Logout(ctx context.Context) error
}

// Options wires the chat view.
type Options struct {
	Config  *config.Config
	Theme   *styles.Theme
	Session *session.Session
	Log     *msglog.Log
	Backend Backend

	// ConfigUpdates delivers reloaded configuration files, if watched.
	ConfigUpdates <-chan *config.Config

	// Clipboard copies text. Defaults to the system clipboard.
	Clipboard func(string) error

	// OnLogout runs after a successful server logout, e.g. to delete the
	// stored token.
	OnLogout func() error

	// ExportDir is where /export writes. Defaults to the working directory.
	ExportDir string

	// TurnOptions are passed to the orchestrator.
	TurnOptions []turn.Option
}

// pickerKind says what the open picker selects.
type pickerKind int

const (
	pickerNone pickerKind = iota
	pickerPersona
	pickerHistory
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme

	width  int
	height int

	sess    *session.Session
	log     *msglog.Log
	orch    *turn.Orchestrator
	backend Backend

	composer *composer
	viewport viewport.Model
	typing   components.TypingIndicator
	header   *components.Header
	status   *components.StatusBar
	list     *components.MessageList

	keyMap KeyMap

	personas      []model.Persona
	conversations []model.ConversationSummary
	picker        *components.Picker
	pickerKind    pickerKind
	showHelp      bool

	lastVersion uint64

	configUpdates <-chan *config.Config
	copyText      func(string) error
	onLogout      func() error
	exportDir     string
	ctx           context.Context
	now           func() time.Time
}

// New creates the chat view.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	l := opts.Log
	if l == nil {
		l = msglog.New()
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	sess := opts.Session
	if sess == nil {
		g := guard.New(
			guard.WithCooldown(cfg.Chat.Cooldown()),
			guard.WithDuplicateWindow(cfg.Chat.DuplicateWindow()),
		)
		sess = session.New(cfg.Backend.BaseURL, cfg.Chat.DefaultPersona, g)
	}

	keys := DefaultKeyMap()
	comp := newComposer(cfg.Chat.MaxInputChars, keys.Newline)

	turnOpts := append([]turn.Option{turn.WithIncludeKnowledge(cfg.Backend.IncludeKnowledge)}, opts.TurnOptions...)

	m := Model{
		cfg:           cfg,
		theme:         theme,
		width:         80,
		height:        24,
		sess:          sess,
		log:           l,
		orch:          turn.New(sess, l, opts.Backend, comp, turnOpts...),
		backend:       opts.Backend,
		composer:      comp,
		viewport:      viewport.New(80, 16),
		typing:        components.NewTypingIndicator(theme),
		header:        components.NewHeader(theme),
		status:        components.NewStatusBar(theme),
		list:          components.NewMessageList(theme),
		keyMap:        keys,
		configUpdates: opts.ConfigUpdates,
		copyText:      copyText,
		onLogout:      opts.OnLogout,
		exportDir:     opts.ExportDir,
		ctx:           context.Background(),
		now:           time.Now,
	}
	m.applyUIConfig(cfg)
	m.status.MaxChars = cfg.Chat.MaxInputChars
	m.layout()
	m.refresh()
	return m
}

// Init loads personas, starts the cursor blink and listens for config
// reloads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.loadPersonasCmd()}
	if m.configUpdates != nil {
		cmds = append(cmds, waitForConfig(m.configUpdates))
	}
	return tea.Batch(cmds...)
}

// Orchestrator exposes the turn orchestrator.
func (m Model) Orchestrator() *turn.Orchestrator {
	return m.orch
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnDoneMsg:
		return m.handleTurnDone(msg)

	case focusMsg:
		if m.composer.enabled && m.picker == nil {
			return m, m.composer.area.Focus()
		}
		return m, nil

	case personasMsg:
		return m.handlePersonas(msg)

	case conversationsMsg:
		return m.handleConversations(msg)

	case conversationMsg:
		return m.handleConversation(msg)

	case feedbackMsg:
		return m.handleFeedback(msg)

	case logoutMsg:
		return m.handleLogout(msg)

	case exportMsg:
		if msg.err != nil {
			m.notifyError("export failed: " + msg.err.Error())
		} else {
			m.notify("exported to " + msg.path)
		}
		return m, nil

	case configMsg:
		m.applyUIConfig(msg.cfg)
		m.refresh()
		return m, waitForConfig(m.configUpdates)

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.composer.area, cmd = m.composer.area.Update(msg)
		cmds = append(cmds, cmd)
		if _, ok := m.log.Typing(); ok {
			m.typing, cmd = m.typing.Update(msg)
			cmds = append(cmds, cmd)
			m.refresh()
		}
		return m, tea.Batch(cmds...)
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout()
	m.lastVersion = 0
	m.refresh()
	return m, nil
}

// layout sizes the viewport and composer. Header and status bar take one
// line each; the composer takes its height plus a border line.
func (m *Model) layout() {
	const (
		headerHeight = 1
		statusHeight = 1
		inputBorder  = 1
	)
	inputHeight := m.composer.area.Height() + inputBorder

	vpHeight := m.height - headerHeight - statusHeight - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	width := m.width
	if width < 1 {
		width = 1
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.composer.area.SetWidth(width)
	m.header.Width = width
	m.status.Width = width
	m.list.Width = width
}

// refresh re-renders the log into the viewport. A change in the log
// version means a bubble was appended or removed, so it scrolls to the
// bottom.
func (m *Model) refresh() {
	typingLine := ""
	if t, ok := m.log.Typing(); ok {
		typingLine = m.typing.View(m.now().Sub(t.Since))
	}
	m.viewport.SetContent(m.list.View(m.log, typingLine))

	if v := m.log.Version(); v != m.lastVersion {
		m.lastVersion = v
		m.viewport.GotoBottom()
	}

	thread, _ := m.sess.ThreadID()
	m.header.Thread = thread
	m.header.Persona = m.personaLabel()
	m.status.Chars = m.composer.Chars()
	if m.sess.InFlight() {
		m.status.Status = components.StatusSending
	} else if m.status.Status == components.StatusSending {
		m.status.Status = components.StatusReady
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.picker != nil {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewChat):
		return m.newChat()

	case key.Matches(msg, m.keyMap.Persona):
		return m.openPersonaPicker()

	case key.Matches(msg, m.keyMap.History):
		return m.openHistory()

	case key.Matches(msg, m.keyMap.Copy):
		return m.copyLatest()

	case key.Matches(msg, m.keyMap.Remember):
		return m.rememberLatest()

	case key.Matches(msg, m.keyMap.GoodAnswer):
		return m.sendFeedback(backend.FeedbackGoodAnswer, "")

	case key.Matches(msg, m.keyMap.BadAnswer):
		return m.sendFeedback(backend.FeedbackBadAnswer, "")

	case key.Matches(msg, m.keyMap.GoodPersona):
		return m.sendFeedback(backend.FeedbackGoodPersonality, "")

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
		return m, nil
	}

	if !m.composer.enabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.composer.area, cmd = m.composer.area.Update(msg)
	m.status.Chars = m.composer.Chars()
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Close):
		return m.closePicker()
	case key.Matches(msg, m.keyMap.Up):
		m.picker.Up()
	case key.Matches(msg, m.keyMap.Down):
		m.picker.Down()
	case key.Matches(msg, m.keyMap.Submit):
		item, ok := m.picker.Selected()
		kind := m.pickerKind
		next, cmd := m.closePicker()
		m = next.(Model)
		if !ok {
			return m, cmd
		}
		switch kind {
		case pickerPersona:
			m.selectPersona(item.ID)
			return m, cmd
		case pickerHistory:
			return m, tea.Batch(cmd, m.loadConversationCmd(item.ID))
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) closePicker() (tea.Model, tea.Cmd) {
	m.picker = nil
	m.pickerKind = pickerNone
	if m.composer.enabled {
		return m, m.composer.area.Focus()
	}
	return m, nil
}

// =============================================================================
// TURNS
// =============================================================================

// submit routes slash commands locally and everything else through the
// orchestrator. A rejected submission changes nothing.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.composer.Value()
	if name, args, ok := parseCommand(text); ok {
		return m.handleCommand(name, args)
	}

	pending, decision := m.orch.Begin(text)
	if pending == nil {
		log.Debug().Str("reason", decision.Reason.String()).Msg("submit ignored")
		return m, nil
	}

	m.typing.SetLabel(m.personaLabel() + " is thinking")
	m.refresh()
	return m, tea.Batch(m.sendCmd(pending), m.typing.Tick())
}

func (m Model) sendCmd(p *turn.Pending) tea.Cmd {
	orch, ctx := m.orch, m.ctx
	return func() tea.Msg {
		return turnDoneMsg{pending: p, outcome: orch.Send(ctx, p)}
	}
}

func (m Model) handleTurnDone(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	m.orch.Complete(msg.pending, msg.outcome)

	if msg.outcome.Err != nil && turn.Classify(msg.outcome.Err) == turn.FailureAuth {
		m.notifyError("not signed in: run `syntaxchat token`")
	}
	m.refresh()

	if m.composer.takeFocusRequest() {
		return m, tea.Tick(m.cfg.Chat.FocusDelay(), func(time.Time) tea.Msg { return focusMsg{} })
	}
	return m, nil
}

func (m Model) newChat() (tea.Model, tea.Cmd) {
	if !m.orch.NewChat() {
		m.notify("wait for the reply before starting a new chat")
		return m, nil
	}
	m.notify("new chat")
	m.refresh()
	return m, nil
}

// =============================================================================
// PERSONAS
// =============================================================================

func (m Model) loadPersonasCmd() tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		list, err := b.Personalities(ctx)
		return personasMsg{personas: list, err: err}
	}
}

// handlePersonas keeps a configured persona that exists on the server and
// otherwise adopts the server default.
func (m Model) handlePersonas(msg personasMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Warn().Err(msg.err).Msg("load personalities")
		m.notifyError("couldn't load personas")
		return m, nil
	}
	m.personas = msg.personas

	current := m.sess.Persona()
	if _, ok := model.FindPersona(m.personas, current); !ok || current == "" {
		if p, ok := model.DefaultPersona(m.personas); ok {
			m.sess.SetPersona(p.ID)
		}
	}
	m.refresh()
	return m, nil
}

func (m Model) openPersonaPicker() (tea.Model, tea.Cmd) {
	if len(m.personas) == 0 {
		m.notify("no personas loaded")
		return m, m.loadPersonasCmd()
	}
	items := make([]components.PickerItem, 0, len(m.personas))
	for _, p := range m.personas {
		hint := ""
		if p.IsDefault {
			hint = "default"
		}
		items = append(items, components.PickerItem{ID: p.ID, Label: p.Label(), Hint: hint})
	}
	m.openPicker(pickerPersona, "Choose a persona", items)
	m.picker.Select(m.sess.Persona())
	return m, nil
}

func (m *Model) selectPersona(id string) bool {
	p, ok := model.FindPersona(m.personas, id)
	if !ok {
		m.notifyError("unknown persona " + id)
		return false
	}
	m.sess.SetPersona(p.ID)
	m.notify("persona: " + p.Label())
	m.refresh()
	return true
}

func (m Model) personaLabel() string {
	id := m.sess.Persona()
	if p, ok := model.FindPersona(m.personas, id); ok {
		return p.Label()
	}
	return id
}

// =============================================================================
// HISTORY
// =============================================================================

func (m Model) openHistory() (tea.Model, tea.Cmd) {
	if m.sess.InFlight() {
		m.notify("wait for the reply before opening history")
		return m, nil
	}
	b, ctx := m.backend, m.ctx
	m.notify("loading conversations...")
	return m, func() tea.Msg {
		list, err := b.Conversations(ctx)
		return conversationsMsg{conversations: list, err: err}
	}
}

func (m Model) handleConversations(msg conversationsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Warn().Err(msg.err).Msg("list conversations")
		m.notifyError("couldn't load conversations")
		return m, nil
	}
	m.conversations = msg.conversations
	m.notify("")

	items := make([]components.PickerItem, 0, len(msg.conversations))
	for _, c := range msg.conversations {
		hint := ""
		if !c.LastMessageAt.IsZero() {
			hint = c.LastMessageAt.Local().Format("Jan 2 15:04")
		}
		items = append(items, components.PickerItem{ID: c.ThreadID, Label: c.DisplayTitle(), Hint: hint})
	}
	m.openPicker(pickerHistory, "Conversations", items)
	if thread, ok := m.sess.ThreadID(); ok {
		m.picker.Select(thread)
	}
	return m, nil
}

func (m Model) loadConversationCmd(threadID string) tea.Cmd {
	b, ctx := m.backend, m.ctx
	return func() tea.Msg {
		msgs, err := b.Conversation(ctx, threadID)
		return conversationMsg{threadID: threadID, messages: msgs, err: err}
	}
}

func (m Model) handleConversation(msg conversationMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Warn().Err(msg.err).Str("thread_id", msg.threadID).Msg("load conversation")
		m.notifyError("couldn't open that conversation")
		return m, nil
	}
	if !m.orch.Replay(msg.threadID, msg.messages) {
		m.notify("wait for the reply before opening history")
		return m, nil
	}
	m.notify("")
	m.refresh()
	return m, nil
}

func (m *Model) openPicker(kind pickerKind, title string, items []components.PickerItem) {
	p := components.NewPicker(m.theme, title, items)
	p.Width = minInt(70, m.width-4)
	p.Height = maxInt(3, m.height-10)
	m.picker = p
	m.pickerKind = kind
	m.composer.area.Blur()
}

// =============================================================================
// ACTION ROW
// =============================================================================

func (m Model) copyLatest() (tea.Model, tea.Cmd) {
	msg, ok := m.log.LatestAssistant()
	if !ok {
		m.notify("no reply to copy")
		return m, nil
	}
	if err := m.copyText(msg.Content); err != nil {
		log.Warn().Err(err).Msg("clipboard")
		m.notifyError("couldn't copy to the clipboard")
		return m, nil
	}
	m.notify("copied")
	return m, nil
}

func (m Model) rememberLatest() (tea.Model, tea.Cmd) {
	msg, ok := m.log.LatestAssistant()
	if !ok {
		m.notify("no reply to remember")
		return m, nil
	}
	m.log.MarkRemembered(msg.ID)
	m.notify("remembered")
	m.refresh()
	return m, nil
}

func (m Model) sendFeedback(kind backend.FeedbackType, text string) (tea.Model, tea.Cmd) {
	msg, ok := m.log.LatestAssistant()
	if !ok {
		m.notify("no reply to rate")
		return m, nil
	}
	req := backend.FeedbackRequest{MessageID: msg.ID, FeedbackType: kind}
	if text != "" {
		req.FeedbackText = &text
	}
	b, ctx, id := m.backend, m.ctx, msg.ID
	return m, func() tea.Msg {
		return feedbackMsg{messageID: id, feedbackType: kind, err: b.Feedback(ctx, req)}
	}
}

func (m Model) handleFeedback(msg feedbackMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, backend.ErrThrottled):
		m.notify("slow down: feedback is limited to one per second")
	case msg.err != nil:
		log.Warn().Err(msg.err).Str("message_id", msg.messageID).Msg("send feedback")
		m.notifyError("couldn't send feedback")
	default:
		m.log.MarkFeedback(msg.messageID, string(msg.feedbackType))
		m.notify("thanks for the feedback")
		m.refresh()
	}
	return m, nil
}

// =============================================================================
// LOGOUT AND CONFIG
// =============================================================================

func (m Model) logout() (tea.Model, tea.Cmd) {
	b, ctx := m.backend, m.ctx
	return m, func() tea.Msg {
		return logoutMsg{err: b.Logout(ctx)}
	}
}

func (m Model) handleLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !errors.Is(msg.err, backend.ErrNoToken) {
		log.Warn().Err(msg.err).Msg("logout")
		m.notifyError("logout failed")
		return m, nil
	}
	if m.onLogout != nil {
		if err := m.onLogout(); err != nil {
			log.Warn().Err(err).Msg("remove stored token")
		}
	}
	m.status.Status = components.StatusOffline
	m.notify("signed out")
	return m, nil
}

func waitForConfig(ch <-chan *config.Config) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

// applyUIConfig re-applies the [ui] section and the log level. Backend and
// chat settings take effect on the next start.
func (m *Model) applyUIConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.UI.Theme != m.cfg.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.header.SetTheme(m.theme)
		m.status.SetTheme(m.theme)
		m.list.SetTheme(m.theme)
		m.typing.SetTheme(m.theme)
	}
	m.list.ShowTimestamp = cfg.UI.ShowTimestamps
	m.list.ShowMetadata = cfg.UI.ShowMetadata
	if cfg.Logging.Level != "" {
		logging.SetLevel(cfg.Logging.Level)
	}

	next := m.cfg.Clone()
	next.UI = cfg.UI
	next.Logging.Level = cfg.Logging.Level
	m.cfg = next
	m.lastVersion = 0
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) notify(text string) {
	m.status.SetNotice(text, false)
}

func (m *Model) notifyError(text string) {
	m.status.SetNotice(text, true)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

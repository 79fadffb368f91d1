package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"nmprofiles/config"
	"nmprofiles/menutree"
	"nmprofiles/profilemenu"
	"nmprofiles/profiles"
)

// =============================================================================
// Constants
// =============================================================================

const (
	helpBarMaxWidth     = 80
	helpBarWidthPercent = 0.80
	listFixedWidth      = 100
	listWidthPercent    = 0.85
	minListWidth        = 40
	statusMsgTimeout    = 3 * time.Second

	keyQuit = "quit"
)

// =============================================================================
// Styles
// =============================================================================

var (
	appStyle = lipgloss.NewStyle().Margin(1, 1)

	// Color palette (ANSI colors for broad terminal support)
	colorPrimary   = lipgloss.Color("5") // Magenta/Purple
	colorSecondary = lipgloss.Color("4") // Blue
	colorAccent    = lipgloss.Color("6") // Cyan
	colorSuccess   = lipgloss.Color("2") // Green
	colorError     = lipgloss.Color("1") // Red
	colorWarning   = lipgloss.Color("3") // Yellow
	colorFaint     = lipgloss.Color("8") // Gray
	colorText      = lipgloss.Color("7") // White/Light gray

	titleStyle            = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1).MarginBottom(1)
	listTitleStyle        = lipgloss.NewStyle().Foreground(colorSecondary).Padding(0, 1).Bold(true)
	listItemStyle         = lipgloss.NewStyle().PaddingLeft(2).Foreground(colorText)
	listSelectedItemStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary).Bold(true)
	listDescStyle         = lipgloss.NewStyle().PaddingLeft(2).Foreground(colorFaint)
	listSelectedDescStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary)
	listNoItemsStyle      = lipgloss.NewStyle().Faint(true).Margin(1, 0).Align(lipgloss.Center).Foreground(colorFaint)

	statusMessageBaseStyle = lipgloss.NewStyle().MarginTop(1)
	errorStyle             = statusMessageBaseStyle.Foreground(colorError).Bold(true)
	successStyle           = statusMessageBaseStyle.Foreground(colorSuccess).Bold(true)
	warningStyle           = statusMessageBaseStyle.Foreground(colorWarning)
	infoStyle              = statusMessageBaseStyle.Foreground(colorFaint)
	connectingStyle        = lipgloss.NewStyle().Foreground(colorAccent)
	formLabelStyle         = lipgloss.NewStyle().Foreground(colorFaint)
	formContainerStyle     = lipgloss.NewStyle().Padding(1).MarginTop(1).Border(lipgloss.NormalBorder(), true).BorderForeground(colorFaint)
	helpGlobalStyle        = lipgloss.NewStyle().Foreground(colorFaint)
	warningBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(colorWarning).Padding(1, 2)

	connectedStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	outOfRangeStyle = lipgloss.NewStyle().Foreground(colorFaint)
	profileMark     = lipgloss.NewStyle().Foreground(colorAccent).Render(" ★")
)

// =============================================================================
// View States
// =============================================================================

type viewState int

const (
	viewWarning viewState = iota
	viewMainMenu
	viewBranch
	viewEditor
)

func (v viewState) String() string {
	names := []string{"Warning", "MainMenu", "Branch", "Editor"}
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("Unknown(%d)", v)
}

// =============================================================================
// List Items
// =============================================================================

// menuItem is a top-level entry. Its key is dispatched through the resolver first.
type menuItem struct {
	key   string
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// nodeItem is a node of a rebuilt branch.
type nodeItem struct {
	node       profilemenu.Node
	hasProfile bool
}

func (i nodeItem) Title() string {
	if i.hasProfile {
		return i.node.Title + profileMark
	}
	return i.node.Title
}

func (i nodeItem) Description() string {
	switch i.node.Summary {
	case "":
		return ""
	case profilemenu.StatusConnected.Summary():
		return connectedStyle.Render(i.node.Summary)
	default:
		return outOfRangeStyle.Render(i.node.Summary)
	}
}

func (i nodeItem) FilterValue() string { return i.node.Title }

type titledItem interface {
	list.Item
	Title() string
	Description() string
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 1 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(titledItem)
	if !ok {
		return
	}

	var title, desc string
	if index == m.Index() {
		title = listSelectedItemStyle.Render("▸ " + item.Title())
		desc = listSelectedDescStyle.Render("  " + item.Description())
	} else {
		title = listItemStyle.Render("  " + item.Title())
		desc = listDescStyle.Render("  " + item.Description())
	}
	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// =============================================================================
// Messages
// =============================================================================

type branchActivatedMsg struct {
	kind profilemenu.Kind
	err  error
}

type configSavedMsg struct {
	err error
}

type clearStatusMsg struct{}

// =============================================================================
// Key Bindings
// =============================================================================

type keyMap struct {
	Select       key.Binding
	Refresh      key.Binding
	Quit         key.Binding
	Back         key.Binding
	Help         key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	Save         key.Binding
	Delete       key.Binding
	currentState viewState
}

func (k keyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{k.Help}

	switch k.currentState {
	case viewWarning:
		bindings = append(bindings, k.Select)
	case viewMainMenu:
		bindings = append(bindings, k.Select)
	case viewBranch:
		bindings = append(bindings, k.Select, k.Refresh, k.Back)
	case viewEditor:
		bindings = append(bindings, k.NextField, k.Save, k.Back)
	}

	return append(bindings, k.Quit)
}

func (k keyMap) FullHelp() [][]key.Binding {
	switch k.currentState {
	case viewEditor:
		return [][]key.Binding{{k.NextField, k.PrevField}, {k.Save, k.Delete, k.Back, k.Quit}}
	default:
		return [][]key.Binding{{k.Help, k.Select, k.Back, k.Quit}, {k.Refresh}}
	}
}

var defaultKeyBindings = keyMap{
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/confirm")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back/cancel")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Delete:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete profile")),
}

// =============================================================================
// Main Model
// =============================================================================

type model struct {
	state viewState

	mainList   list.Model
	branchList list.Model
	spinner    spinner.Model
	keys       keyMap
	help       help.Model

	resolver   *profilemenu.Resolver
	tree       *menutree.Tree
	editor     *profileEditor
	store      *profiles.Store
	cfg        *config.Config
	configPath string
	logger     *zap.Logger

	activeKind profilemenu.Kind
	statusMsg  string
	isLoading  bool

	width  int
	height int
}

func newList(title, noItems string, items []list.Item) list.Model {
	l := list.New(items, itemDelegate{}, 0, 0)
	l.Title = title
	l.Styles.Title = listTitleStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = listNoItemsStyle.SetString(noItems)
	return l
}

func mainMenuItems() []list.Item {
	return []list.Item{
		menuItem{key: profilemenu.ScreenWifi, title: "WiFi based", desc: "Profiles bound to configured WiFi networks"},
		menuItem{key: profilemenu.ScreenRooms, title: "Room based", desc: "Profiles bound to named rooms"},
		menuItem{key: keyQuit, title: "Quit", desc: "Leave " + appName},
	}
}

func initialModel(a *app) model {
	s := spinner.New()
	s.Spinner = spinner.Globe
	s.Style = connectingStyle

	h := help.New()
	subtleStyle := lipgloss.NewStyle().Foreground(colorFaint)
	h.Styles = help.Styles{
		ShortKey:  subtleStyle,
		ShortDesc: subtleStyle,
		FullKey:   subtleStyle,
		FullDesc:  subtleStyle,
		Ellipsis:  subtleStyle,
	}

	m := model{
		state:      viewMainMenu,
		mainList:   newList(appName, "", mainMenuItems()),
		branchList: newList("", "Nothing here. Try (r)efresh.", nil),
		spinner:    s,
		keys:       defaultKeyBindings,
		help:       h,
		resolver:   a.resolver,
		tree:       a.tree,
		editor:     a.editor,
		store:      a.store,
		cfg:        a.cfg,
		configPath: a.configPath,
		logger:     a.logger,
	}
	if !a.cfg.WarningShown {
		m.state = viewWarning
	}
	m.keys.currentState = m.state
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

// =============================================================================
// Commands
// =============================================================================

// activateBranchCmd runs the branch rebuild off the UI loop; the WiFi query may block for the configured timeout.
func activateBranchCmd(resolver *profilemenu.Resolver, kind profilemenu.Kind) tea.Cmd {
	return func() tea.Msg {
		screen := profilemenu.ScreenWifi
		if kind == profilemenu.KindRoom {
			screen = profilemenu.ScreenRooms
		}
		_, err := resolver.Click(context.Background(), screen)
		return branchActivatedMsg{kind: kind, err: err}
	}
}

func saveConfigCmd(cfg *config.Config, path string) tea.Cmd {
	return func() tea.Msg {
		return configSavedMsg{err: cfg.Save(path)}
	}
}

func clearStatusAfterDelay() tea.Cmd {
	return tea.Tick(statusMsgTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// =============================================================================
// Helper Functions
// =============================================================================

func (m *model) setStatus(msg string, style lipgloss.Style) {
	m.statusMsg = style.Render(msg)
}

func (m *model) clearStatus() {
	m.statusMsg = ""
}

func branchTitle(kind profilemenu.Kind) string {
	if kind == profilemenu.KindRoom {
		return "Room based profiles"
	}
	return "WiFi based profiles"
}

// refreshBranchList mirrors the branch container into the list widget.
func (m *model) refreshBranchList() {
	var items []list.Item
	if b := m.tree.Lookup(m.activeKind.Branch()); b != nil {
		for _, n := range b.Nodes() {
			_, has := m.store.Get(n.Target)
			items = append(items, nodeItem{node: n, hasProfile: has})
		}
	}
	m.branchList.SetItems(items)
	m.branchList.Title = fmt.Sprintf("%s (%d)", branchTitle(m.activeKind), len(items))
}

func (m *model) resizeComponents() {
	availableWidth := m.width - appStyle.GetHorizontalFrameSize()
	availableHeight := m.height - appStyle.GetVerticalFrameSize()

	desiredHelpWidth := int(float64(availableWidth) * helpBarWidthPercent)
	if desiredHelpWidth > helpBarMaxWidth {
		desiredHelpWidth = helpBarMaxWidth
	}
	if desiredHelpWidth < 20 {
		desiredHelpWidth = 20
	}
	m.help.Width = desiredHelpWidth

	headerHeight := lipgloss.Height(m.headerView(availableWidth))
	footerHeight := lipgloss.Height(m.footerView(availableWidth))
	contentHeight := availableHeight - headerHeight - footerHeight - 2
	if contentHeight < 0 {
		contentHeight = 0
	}

	listWidth := int(float64(availableWidth) * listWidthPercent)
	if listWidth > listFixedWidth {
		listWidth = listFixedWidth
	}
	if listWidth < minListWidth {
		listWidth = minListWidth
	}
	m.mainList.SetSize(listWidth, contentHeight)
	m.branchList.SetSize(listWidth, contentHeight)
}

// =============================================================================
// Update
// =============================================================================

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.keys.currentState = m.state

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeComponents()
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case clearStatusMsg:
		if m.state != viewEditor {
			m.clearStatus()
		}

	case branchActivatedMsg:
		if m.state != viewBranch || msg.kind != m.activeKind {
			break
		}
		m.isLoading = false
		m.refreshBranchList()
		switch {
		case errors.Is(msg.err, profilemenu.ErrSourceUnavailable):
			m.setStatus("Could not read the configured WiFi networks", warningStyle)
		case errors.Is(msg.err, profilemenu.ErrConfigurationMissing):
			m.setStatus("This menu is not available", errorStyle)
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("Error: %v", msg.err), errorStyle)
		}

	case configSavedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to save config", zap.Error(msg.err))
			m.setStatus(fmt.Sprintf("Could not save settings: %v", msg.err), errorStyle)
			cmds = append(cmds, clearStatusAfterDelay())
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg)...)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleKeyPress(msg tea.KeyMsg) []tea.Cmd {
	// The editor takes printable keys, so only ctrl+c quits from there.
	if m.state == viewEditor {
		if msg.String() == "ctrl+c" {
			return []tea.Cmd{tea.Quit}
		}
		return m.handleEditorKeys(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		return []tea.Cmd{tea.Quit}
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		m.resizeComponents()
		return nil
	}

	switch m.state {
	case viewWarning:
		return m.handleWarningKeys(msg)
	case viewMainMenu:
		return m.handleMainMenuKeys(msg)
	case viewBranch:
		return m.handleBranchKeys(msg)
	}
	return nil
}

func (m *model) handleWarningKeys(msg tea.KeyMsg) []tea.Cmd {
	if !key.Matches(msg, m.keys.Select) && !key.Matches(msg, m.keys.Back) {
		return nil
	}
	m.state = viewMainMenu
	m.cfg.WarningShown = true
	return []tea.Cmd{saveConfigCmd(m.cfg, m.configPath)}
}

func (m *model) handleMainMenuKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmd tea.Cmd

	if !key.Matches(msg, m.keys.Select) {
		m.mainList, cmd = m.mainList.Update(msg)
		return []tea.Cmd{cmd}
	}

	item, ok := m.mainList.SelectedItem().(menuItem)
	if !ok {
		return nil
	}
	return m.dispatch(item.key)
}

// dispatch is the outer dispatcher for top-level keys.
func (m *model) dispatch(itemKey string) []tea.Cmd {
	switch itemKey {
	case profilemenu.ScreenWifi:
		return m.openBranch(profilemenu.KindWifi)
	case profilemenu.ScreenRooms:
		return m.openBranch(profilemenu.KindRoom)
	case keyQuit:
		return []tea.Cmd{tea.Quit}
	}
	m.logger.Debug("Unhandled menu key", zap.String("key", itemKey))
	return nil
}

func (m *model) openBranch(kind profilemenu.Kind) []tea.Cmd {
	m.state = viewBranch
	m.activeKind = kind
	m.isLoading = true
	m.clearStatus()
	m.branchList.SetItems(nil)
	m.branchList.Title = "Loading..."
	return []tea.Cmd{activateBranchCmd(m.resolver, kind), m.spinner.Tick}
}

func (m *model) handleBranchKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmd tea.Cmd

	if m.isLoading {
		if key.Matches(msg, m.keys.Back) {
			m.state = viewMainMenu
			m.isLoading = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = viewMainMenu
		m.clearStatus()

	case key.Matches(msg, m.keys.Refresh):
		return m.openBranch(m.activeKind)

	case key.Matches(msg, m.keys.Select):
		item, ok := m.branchList.SelectedItem().(nodeItem)
		if !ok {
			return nil
		}
		handled, err := m.resolver.Click(context.Background(), item.node.Key)
		if err != nil {
			m.setStatus(fmt.Sprintf("Error: %v", err), errorStyle)
			return []tea.Cmd{clearStatusAfterDelay()}
		}
		if !handled || !m.editor.opened {
			return m.dispatch(item.node.Key)
		}
		m.state = viewEditor
		m.clearStatus()
		return []tea.Cmd{textinput.Blink}

	default:
		m.branchList, cmd = m.branchList.Update(msg)
		return []tea.Cmd{cmd}
	}
	return nil
}

func (m *model) handleEditorKeys(msg tea.KeyMsg) []tea.Cmd {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Back):
		m.editor.Close()
		m.state = viewBranch
		m.refreshBranchList()

	case key.Matches(msg, m.keys.NextField):
		m.editor.next()

	case key.Matches(msg, m.keys.PrevField):
		m.editor.prev()

	case key.Matches(msg, m.keys.Delete):
		if err := m.editor.Delete(); err == nil {
			m.editor.Close()
			m.state = viewBranch
			m.refreshBranchList()
			m.setStatus("Profile deleted", successStyle)
			return []tea.Cmd{clearStatusAfterDelay()}
		}

	case key.Matches(msg, m.keys.Save) || (key.Matches(msg, m.keys.Select) && m.editor.focus == fieldCount-1):
		if err := m.editor.Save(); err != nil {
			return nil
		}
		m.editor.Close()
		m.state = viewBranch
		m.refreshBranchList()
		m.setStatus("Profile saved", successStyle)
		return []tea.Cmd{clearStatusAfterDelay()}

	case key.Matches(msg, m.keys.Select):
		m.editor.next()

	default:
		m.editor.inputs[m.editor.focus], cmd = m.editor.inputs[m.editor.focus].Update(msg)
		return []tea.Cmd{cmd}
	}
	return nil
}

// =============================================================================
// View
// =============================================================================

func (m model) View() string {
	availableWidth := m.width - appStyle.GetHorizontalFrameSize()

	header := m.headerView(availableWidth)
	footer := m.footerView(availableWidth)

	contentHeight := m.height - appStyle.GetVerticalFrameSize() - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	var content string
	switch m.state {
	case viewWarning:
		content = m.renderWarning(availableWidth, contentHeight)
	case viewMainMenu:
		content = m.renderList(m.mainList, availableWidth)
	case viewBranch:
		content = m.renderBranch(availableWidth, contentHeight)
	case viewEditor:
		content = lipgloss.Place(availableWidth, contentHeight, lipgloss.Center, lipgloss.Center, m.editor.View())
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Top, header, content, footer))
}

func (m model) headerView(width int) string {
	title := titleStyle.Render(appName)
	if m.state != viewBranch {
		return title
	}
	status := listTitleStyle.Render(branchTitle(m.activeKind))
	spacing := width - lipgloss.Width(title) - lipgloss.Width(status)
	if spacing < 1 {
		spacing = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, title, strings.Repeat(" ", spacing), status)
}

func (m model) footerView(width int) string {
	keys := m.keys
	keys.currentState = m.state
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, helpGlobalStyle.Render(m.help.View(keys)))
}

func (m model) renderList(l list.Model, width int) string {
	view := lipgloss.PlaceHorizontal(width, lipgloss.Center, l.View())
	if m.statusMsg != "" {
		view = lipgloss.JoinVertical(lipgloss.Top, view, m.statusMsg)
	}
	return view
}

func (m model) renderBranch(width, height int) string {
	if m.isLoading {
		spinnerView := connectingStyle.Render(m.spinner.View() + " Reading " + m.activeKind.String() + " contexts...")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, spinnerView)
	}
	return m.renderList(m.branchList, width)
}

func (m model) renderWarning(width, height int) string {
	text := strings.Join([]string{
		warningStyle.Render("Before you start"),
		"",
		"Profiles bound to a WiFi network are offered whenever that network is configured on this machine.",
		"Room profiles are offered for every room listed in the configuration file.",
		"Passwords are stored in plain text in " + m.cfg.ProfilesPath + ".",
		"",
		lipgloss.NewStyle().Foreground(colorFaint).Render("(Press Enter to continue)"),
	}, "\n")
	boxWidth := width * 3 / 4
	if boxWidth < minListWidth {
		boxWidth = minListWidth
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, warningBoxStyle.Width(boxWidth).Render(text))
}

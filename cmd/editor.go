package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"nmprofiles/profilemenu"
	"nmprofiles/profiles"
)

const (
	fieldHost = iota
	fieldPort
	fieldPassword
	fieldStreamURL
	fieldMusicPath
	fieldCount
)

// profileEditor is the destination selections are routed to. It lives behind a pointer so the resolver and the
// bubbletea model see the same instance.
type profileEditor struct {
	store  *profiles.Store
	logger *zap.Logger

	target profilemenu.Target
	inputs []textinput.Model
	focus  int
	opened bool
	exists bool
	err    error
}

func newProfileEditor(store *profiles.Store, logger *zap.Logger) *profileEditor {
	e := &profileEditor{store: store, logger: logger}
	e.inputs = make([]textinput.Model, fieldCount)
	for i := range e.inputs {
		ti := textinput.New()
		ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)
		ti.CharLimit = 128
		switch i {
		case fieldHost:
			ti.Placeholder = "mpd.local"
			ti.Prompt = editorLabel("Host")
		case fieldPort:
			ti.Placeholder = strconv.Itoa(profiles.DefaultPort)
			ti.Prompt = editorLabel("Port")
			ti.CharLimit = 5
		case fieldPassword:
			ti.Placeholder = "(none)"
			ti.Prompt = editorLabel("Password")
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		case fieldStreamURL:
			ti.Placeholder = "http://mpd.local:8000"
			ti.Prompt = editorLabel("Stream URL")
		case fieldMusicPath:
			ti.Placeholder = "/music"
			ti.Prompt = editorLabel("Music path")
		}
		e.inputs[i] = ti
	}
	return e
}

func editorLabel(s string) string {
	return formLabelStyle.Render(fmt.Sprintf("%-11s ", s+":"))
}

// OpenProfile implements profilemenu.Editor.
func (e *profileEditor) OpenProfile(target profilemenu.Target) {
	e.target = target
	e.err = nil
	p, ok := e.store.Get(target)
	e.exists = ok

	e.inputs[fieldHost].SetValue(p.Host)
	if p.Port != 0 {
		e.inputs[fieldPort].SetValue(strconv.Itoa(p.Port))
	} else {
		e.inputs[fieldPort].SetValue("")
	}
	e.inputs[fieldPassword].SetValue(p.Password)
	e.inputs[fieldStreamURL].SetValue(p.StreamURL)
	e.inputs[fieldMusicPath].SetValue(p.MusicPath)

	e.setFocus(fieldHost)
	e.opened = true
	e.logger.Debug("Opened profile", zap.Stringer("target", target), zap.Bool("exists", ok))
}

// Close blurs every input and marks the editor closed.
func (e *profileEditor) Close() {
	for i := range e.inputs {
		e.inputs[i].Blur()
	}
	e.opened = false
}

func (e *profileEditor) setFocus(i int) {
	e.focus = (i + fieldCount) % fieldCount
	for j := range e.inputs {
		if j == e.focus {
			e.inputs[j].Focus()
		} else {
			e.inputs[j].Blur()
		}
	}
}

func (e *profileEditor) next() { e.setFocus(e.focus + 1) }
func (e *profileEditor) prev() { e.setFocus(e.focus - 1) }

// profile reads the form back.
func (e *profileEditor) profile() (profiles.Profile, error) {
	p := profiles.Profile{
		Host:      strings.TrimSpace(e.inputs[fieldHost].Value()),
		Password:  e.inputs[fieldPassword].Value(),
		StreamURL: strings.TrimSpace(e.inputs[fieldStreamURL].Value()),
		MusicPath: strings.TrimSpace(e.inputs[fieldMusicPath].Value()),
	}
	if port := strings.TrimSpace(e.inputs[fieldPort].Value()); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return p, fmt.Errorf("port must be a number")
		}
		p.Port = n
	}
	return p, p.Validate()
}

// Save validates the form and stores it.
func (e *profileEditor) Save() error {
	p, err := e.profile()
	if err == nil {
		err = e.store.Put(e.target, p)
	}
	e.err = err
	if err != nil {
		e.logger.Debug("Profile not saved", zap.Stringer("target", e.target), zap.Error(err))
		return err
	}
	e.exists = true
	e.logger.Info("Profile saved", zap.Stringer("target", e.target), zap.String("address", p.Address()))
	return nil
}

// Delete removes the stored profile.
func (e *profileEditor) Delete() error {
	err := e.store.Delete(e.target)
	e.err = err
	if err == nil {
		e.exists = false
	}
	return err
}

func (e *profileEditor) title() string {
	if e.target.Room != "" {
		return "Profile for room " + e.target.Room
	}
	return "Profile for WiFi " + e.target.SSID
}

func (e *profileEditor) View() string {
	lines := []string{listTitleStyle.Render(e.title()), ""}
	for i := range e.inputs {
		lines = append(lines, e.inputs[i].View())
	}
	if e.err != nil {
		lines = append(lines, errorStyle.Render(e.err.Error()))
	} else if !e.exists {
		lines = append(lines, infoStyle.Render("No profile stored yet"))
	}
	return formContainerStyle.Render(strings.Join(lines, "\n"))
}

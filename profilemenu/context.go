// Package profilemenu resolves which connection profile a client should use from the network context it observes,
// and builds the two-branch (WiFi based, room based) menu that lets a user pick one.
package profilemenu

import (
	"errors"
	"fmt"
	"strings"
)

// --- Keys ---
// Framework keys never start with a node key prefix, so DecodeKey cannot mistake one for a profile node.
const (
	// BranchWifi and BranchRooms are the menu framework keys of the two branch containers.
	BranchWifi  = "categoryWifiBased"
	BranchRooms = "categoryRoomBased"

	// ScreenWifi and ScreenRooms are the parent nodes whose activation rebuilds a branch.
	ScreenWifi  = "screenWifiBased"
	ScreenRooms = "screenRoomBased"

	wifiKeyPrefix = "wifiNetwork"
	roomKeyPrefix = "room"

	// ssidDelimiter is the quoting character WiFi services wrap network names in.
	ssidDelimiter = "\""
)

var (
	// ErrSourceUnavailable reports that the WiFi source could not be queried. The branch is left empty.
	ErrSourceUnavailable = errors.New("wifi source unavailable")
	// ErrConfigurationMissing reports that the menu framework has no container for a branch.
	ErrConfigurationMissing = errors.New("menu branch not configured")
)

// Kind is the source a connection context comes from.
type Kind int

const (
	KindWifi Kind = iota
	KindRoom
)

func (k Kind) String() string {
	switch k {
	case KindWifi:
		return "wifi"
	case KindRoom:
		return "room"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindWifi || k == KindRoom
}

// Branch returns the menu framework key of the branch holding entries of this kind, or "" for an unknown kind.
func (k Kind) Branch() string {
	switch k {
	case KindWifi:
		return BranchWifi
	case KindRoom:
		return BranchRooms
	default:
		return ""
	}
}

// Context identifies the target a connection profile is bound to. Two contexts are equal iff both fields match.
type Context struct {
	Kind       Kind
	Identifier string
}

func (c Context) String() string {
	return c.Kind.String() + ":" + c.Identifier
}

// Target converts the context into the parameter handed to the profile editor.
func (c Context) Target() Target {
	if c.Kind == KindRoom {
		return Target{Room: c.Identifier}
	}
	return Target{SSID: c.Identifier}
}

// Target is the profile editor parameter. Exactly one field is set.
type Target struct {
	SSID string
	Room string
}

func (t Target) String() string {
	if t.Room != "" {
		return "room:" + t.Room
	}
	return "ssid:" + t.SSID
}

// Status is the live state shown next to an entry.
type Status int

const (
	StatusUnset Status = iota
	StatusConnected
	StatusNotInRange
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusNotInRange:
		return "not-in-range"
	default:
		return "unset"
	}
}

// Summary is the human readable rendering used as a node summary. Unset renders empty.
func (s Status) Summary() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusNotInRange:
		return "Not in range"
	default:
		return ""
	}
}

// Candidate is a raw record from a source, before normalization. An empty Name means the source gave none.
type Candidate struct {
	Kind    Kind
	Name    string
	Current bool
}

// Entry is one displayable menu entry.
type Entry struct {
	Context Context
	Title   string
	Status  Status
	Key     string
}

// Normalize turns a candidate into its canonical context. It reports false for candidates that must be dropped.
func Normalize(c Candidate) (Context, bool) {
	id := c.Name
	if c.Kind == KindWifi {
		id = strings.ReplaceAll(c.Name, ssidDelimiter, "")
	}
	if id == "" {
		return Context{}, false
	}
	return Context{Kind: c.Kind, Identifier: id}, true
}

// Classify derives the display status of a candidate.
func Classify(c Candidate) Status {
	if c.Kind != KindWifi {
		return StatusUnset
	}
	if c.Current {
		return StatusConnected
	}
	return StatusNotInRange
}

// Entries normalizes and classifies candidates in order, returning the entries and the number dropped.
func Entries(candidates []Candidate) ([]Entry, int) {
	entries := make([]Entry, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		ctx, ok := Normalize(c)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, Entry{
			Context: ctx,
			Title:   ctx.Identifier,
			Status:  Classify(c),
			Key:     MenuKey(ctx),
		})
	}
	return entries, dropped
}

// MenuKey encodes a context into the menu framework key of its node.
func MenuKey(ctx Context) string {
	if ctx.Kind == KindRoom {
		return roomKeyPrefix + ctx.Identifier
	}
	return wifiKeyPrefix + ctx.Identifier
}

// DecodeKey is the inverse of MenuKey. Keys without a known prefix, or with nothing after it, do not match.
func DecodeKey(key string) (Context, bool) {
	var ctx Context
	switch {
	case strings.HasPrefix(key, wifiKeyPrefix):
		ctx = Context{Kind: KindWifi, Identifier: strings.TrimPrefix(key, wifiKeyPrefix)}
	case strings.HasPrefix(key, roomKeyPrefix):
		ctx = Context{Kind: KindRoom, Identifier: strings.TrimPrefix(key, roomKeyPrefix)}
	default:
		return Context{}, false
	}
	if ctx.Identifier == "" {
		return Context{}, false
	}
	return ctx, true
}

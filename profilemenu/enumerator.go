package profilemenu

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultWifiTimeout bounds a single query against the WiFi source.
const DefaultWifiTimeout = 5 * time.Second

// Network is one configured network as reported by the WiFi source.
type Network struct {
	Name    string
	Current bool
}

// WifiSource lists the networks configured on the local radio. It may block; implementations must honor ctx.
type WifiSource interface {
	ConfiguredNetworks(ctx context.Context) ([]Network, error)
}

// RoomSource exposes the static, externally owned list of room names.
type RoomSource interface {
	RoomNames() []string
}

// RoomList is a RoomSource backed by a fixed slice.
type RoomList []string

func (r RoomList) RoomNames() []string { return r }

// Enumerator pulls raw candidates from the two sources.
type Enumerator struct {
	wifi    WifiSource
	rooms   RoomSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewEnumerator creates an enumerator. Either source may be nil.
func NewEnumerator(wifi WifiSource, rooms RoomSource, timeout time.Duration, logger *zap.Logger) *Enumerator {
	if timeout <= 0 {
		timeout = DefaultWifiTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{wifi: wifi, rooms: rooms, timeout: timeout, logger: logger}
}

// Enumerate re-queries the source for kind. A WiFi failure returns no candidates and an error wrapping
// ErrSourceUnavailable; callers proceed with an empty branch.
func (e *Enumerator) Enumerate(ctx context.Context, kind Kind) ([]Candidate, error) {
	switch kind {
	case KindWifi:
		return e.wifiCandidates(ctx)
	case KindRoom:
		return e.roomCandidates(), nil
	default:
		return nil, fmt.Errorf("enumerate: unknown kind %s", kind)
	}
}

func (e *Enumerator) wifiCandidates(ctx context.Context) ([]Candidate, error) {
	if e.wifi == nil {
		e.logger.Debug("No WiFi source configured")
		return nil, fmt.Errorf("%w: no source", ErrSourceUnavailable)
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	networks, err := e.wifi.ConfiguredNetworks(queryCtx)
	if err != nil {
		e.logger.Debug("Failed to retrieve configured networks", zap.Error(err), zap.Duration("timeout", e.timeout))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	candidates := make([]Candidate, len(networks))
	for i, n := range networks {
		candidates[i] = Candidate{Kind: KindWifi, Name: n.Name, Current: n.Current}
	}
	e.logger.Debug("Enumerated configured networks", zap.Int("count", len(candidates)))
	return candidates, nil
}

func (e *Enumerator) roomCandidates() []Candidate {
	if e.rooms == nil {
		return nil
	}
	names := e.rooms.RoomNames()
	candidates := make([]Candidate, len(names))
	for i, name := range names {
		candidates[i] = Candidate{Kind: KindRoom, Name: name}
	}
	return candidates
}

package profilemenu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Editor is the profile editing destination. It owns everything after a context is chosen.
type Editor interface {
	OpenProfile(target Target)
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(target Target)

func (f EditorFunc) OpenProfile(target Target) { f(target) }

// Report summarizes one branch activation.
type Report struct {
	Kind    Kind
	Entries int
	Dropped int
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	wifiTimeout time.Duration
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithWifiTimeout bounds each query against the WiFi source.
func WithWifiTimeout(d time.Duration) Option {
	return func(o *options) { o.wifiTimeout = d }
}

// Resolver ties the enumerator, the synthesizer and the selection router together. It keeps no state between
// activations; the menu tree is the only thing it writes to.
type Resolver struct {
	menu       Menu
	enumerator *Enumerator
	editor     Editor
	logger     *zap.Logger
	inflight   singleflight.Group
}

// New creates a Resolver. wifi and rooms may be nil; editor may be nil when selections are not routed anywhere.
func New(menu Menu, wifi WifiSource, rooms RoomSource, editor Editor, opts ...Option) *Resolver {
	o := options{logger: zap.NewNop(), wifiTimeout: DefaultWifiTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Resolver{
		menu:       menu,
		enumerator: NewEnumerator(wifi, rooms, o.wifiTimeout, o.logger.Named("enumerator")),
		editor:     editor,
		logger:     o.logger,
	}
}

// ActivateWifi rebuilds the WiFi branch.
func (r *Resolver) ActivateWifi(ctx context.Context) (Report, error) {
	return r.Activate(ctx, KindWifi)
}

// ActivateRooms rebuilds the room branch.
func (r *Resolver) ActivateRooms(ctx context.Context) (Report, error) {
	return r.Activate(ctx, KindRoom)
}

// Activate runs a full enumerate, normalize, rebuild pass for kind. Concurrent activations of the same branch share
// a single pass. Returned errors are non-fatal: ErrConfigurationMissing means nothing was touched,
// ErrSourceUnavailable means the branch was emptied.
func (r *Resolver) Activate(ctx context.Context, kind Kind) (Report, error) {
	v, err, shared := r.inflight.Do(kind.String(), func() (interface{}, error) {
		return r.activate(ctx, kind)
	})
	if shared {
		r.logger.Debug("Joined in-flight activation", zap.Stringer("kind", kind))
	}
	return v.(Report), err
}

func (r *Resolver) activate(ctx context.Context, kind Kind) (Report, error) {
	report := Report{Kind: kind}
	if !kind.Valid() {
		return report, fmt.Errorf("activate: unknown kind %s", kind)
	}

	var branch Branch
	if r.menu != nil {
		branch = r.menu.Branch(kind.Branch())
	}
	if branch == nil {
		r.logger.Error("Failed to find menu branch", zap.String("branch", kind.Branch()))
		return report, fmt.Errorf("%w: %s", ErrConfigurationMissing, kind.Branch())
	}

	candidates, enumErr := r.enumerator.Enumerate(ctx, kind)
	entries, dropped := Entries(candidates)
	Rebuild(branch, entries)

	report.Entries = len(entries)
	report.Dropped = dropped
	if dropped > 0 {
		r.logger.Debug("Dropped candidates without a usable name", zap.Stringer("kind", kind), zap.Int("dropped", dropped))
	}
	if enumErr != nil {
		if errors.Is(enumErr, ErrSourceUnavailable) {
			r.logger.Debug("Branch rebuilt empty, source unavailable", zap.Stringer("kind", kind), zap.Error(enumErr))
		}
		return report, enumErr
	}

	r.logger.Debug("Branch rebuilt", zap.Stringer("kind", kind), zap.Int("entries", report.Entries))
	return report, nil
}

// Select resolves an activated node key back to its context and hands it to the editor. It reports false, leaving
// the editor untouched, for keys this resolver did not produce.
func (r *Resolver) Select(key string) (Context, bool) {
	ctx, ok := DecodeKey(key)
	if !ok {
		return Context{}, false
	}
	r.logger.Debug("Routing selection to profile editor", zap.String("key", key), zap.Stringer("target", ctx.Target()))
	if r.editor != nil {
		r.editor.OpenProfile(ctx.Target())
	}
	return ctx, true
}

// Click is the single entry point for a click anywhere in the menu: branch screens trigger a rebuild, profile
// nodes are routed, everything else is reported unhandled for an outer dispatcher.
func (r *Resolver) Click(ctx context.Context, key string) (bool, error) {
	switch key {
	case ScreenWifi:
		_, err := r.ActivateWifi(ctx)
		return true, err
	case ScreenRooms:
		_, err := r.ActivateRooms(ctx)
		return true, err
	}
	_, handled := r.Select(key)
	return handled, nil
}

package profilemenu

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeWifi struct {
	networks []Network
	err      error
	calls    atomic.Int32
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeWifi) ConfiguredNetworks(ctx context.Context) ([]Network, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.networks, f.err
}

type fakeBranch struct {
	mu    sync.Mutex
	nodes []Node
}

func (b *fakeBranch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = nil
}

func (b *fakeBranch) Add(n Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = append(b.nodes, n)
}

func (b *fakeBranch) snapshot() []Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Node(nil), b.nodes...)
}

type fakeMenu map[string]*fakeBranch

func (m fakeMenu) Branch(key string) Branch {
	if b, ok := m[key]; ok {
		return b
	}
	return nil
}

func newFakeMenu() fakeMenu {
	return fakeMenu{BranchWifi: &fakeBranch{}, BranchRooms: &fakeBranch{}}
}

type recordingEditor struct {
	targets []Target
}

func (e *recordingEditor) OpenProfile(t Target) { e.targets = append(e.targets, t) }

// --- tests ---

func TestActivateWifiBuildsNodes(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{networks: []Network{
		{Name: `"Home Network"`, Current: true},
		{Name: ""},
		{Name: `"Cafe"`},
	}}
	r := New(menu, wifi, nil, nil)

	report, err := r.ActivateWifi(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Kind: KindWifi, Entries: 2, Dropped: 1}, report)

	assert.Equal(t, []Node{
		{Key: "wifiNetworkHome Network", Title: "Home Network", Summary: "Connected", Target: Target{SSID: "Home Network"}},
		{Key: "wifiNetworkCafe", Title: "Cafe", Summary: "Not in range", Target: Target{SSID: "Cafe"}},
	}, menu[BranchWifi].snapshot())
	assert.Empty(t, menu[BranchRooms].snapshot())
}

func TestActivateRoomsBuildsNodesWithoutSummary(t *testing.T) {
	menu := newFakeMenu()
	r := New(menu, nil, RoomList{"Kitchen", "Office"}, nil)

	report, err := r.ActivateRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entries)

	nodes := menu[BranchRooms].snapshot()
	require.Len(t, nodes, 2)
	assert.Equal(t, Node{Key: "roomKitchen", Title: "Kitchen", Target: Target{Room: "Kitchen"}}, nodes[0])
	assert.Equal(t, "Office", nodes[1].Title)
	assert.Empty(t, nodes[1].Summary)
}

func TestActivateEmptyRoomListIsNotAnError(t *testing.T) {
	menu := newFakeMenu()
	menu[BranchRooms].Add(Node{Key: "roomOld"})
	r := New(menu, nil, RoomList{}, nil)

	report, err := r.ActivateRooms(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Entries)
	assert.Empty(t, menu[BranchRooms].snapshot())
}

func TestRebuildIsIdempotent(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{networks: []Network{{Name: "A", Current: true}, {Name: "B"}}}
	r := New(menu, wifi, nil, nil)

	_, err := r.ActivateWifi(context.Background())
	require.NoError(t, err)
	once := menu[BranchWifi].snapshot()

	_, err = r.ActivateWifi(context.Background())
	require.NoError(t, err)
	assert.Equal(t, once, menu[BranchWifi].snapshot())
}

func TestRebuildReplacesPreviousGeneration(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{networks: []Network{{Name: "A"}, {Name: "B"}}}
	r := New(menu, wifi, nil, nil)

	_, err := r.ActivateWifi(context.Background())
	require.NoError(t, err)

	wifi.networks = []Network{{Name: "B", Current: true}, {Name: "C"}}
	_, err = r.ActivateWifi(context.Background())
	require.NoError(t, err)

	var keys []string
	for _, n := range menu[BranchWifi].snapshot() {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"wifiNetworkB", "wifiNetworkC"}, keys)
	assert.Equal(t, "Connected", menu[BranchWifi].snapshot()[0].Summary)
}

func TestActivateUnavailableSource(t *testing.T) {
	menu := newFakeMenu()
	menu[BranchWifi].Add(Node{Key: "wifiNetworkStale"})
	wifi := &fakeWifi{err: errors.New("service down")}
	r := New(menu, wifi, nil, nil)

	report, err := r.ActivateWifi(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Zero(t, report.Entries)
	assert.Empty(t, menu[BranchWifi].snapshot())
}

func TestActivateWithoutWifiSource(t *testing.T) {
	menu := newFakeMenu()
	r := New(menu, nil, nil, nil)

	_, err := r.ActivateWifi(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Empty(t, menu[BranchWifi].snapshot())
}

func TestActivateTimesOutSlowSource(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{networks: []Network{{Name: "A"}}, gate: make(chan struct{})}
	r := New(menu, wifi, nil, nil, WithWifiTimeout(10*time.Millisecond))

	_, err := r.ActivateWifi(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Empty(t, menu[BranchWifi].snapshot())
}

func TestActivateMissingBranch(t *testing.T) {
	menu := fakeMenu{BranchRooms: &fakeBranch{}}
	wifi := &fakeWifi{networks: []Network{{Name: "A"}}}
	r := New(menu, wifi, RoomList{"Kitchen"}, nil)

	_, err := r.ActivateWifi(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Zero(t, wifi.calls.Load(), "source must not be queried for a missing branch")

	_, err = r.ActivateRooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, menu[BranchRooms].snapshot(), 1)
}

func TestActivateNilMenu(t *testing.T) {
	r := New(nil, nil, RoomList{"Kitchen"}, nil)
	_, err := r.ActivateRooms(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestActivateUnknownKindLeavesMenuAlone(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{networks: []Network{{Name: "Home"}}}
	r := New(menu, wifi, RoomList{"Kitchen"}, nil)
	ctx := context.Background()

	_, err := r.ActivateWifi(ctx)
	require.NoError(t, err)
	_, err = r.ActivateRooms(ctx)
	require.NoError(t, err)

	_, err = r.Activate(ctx, Kind(7))
	assert.Error(t, err)
	assert.Len(t, menu[BranchWifi].snapshot(), 1)
	assert.Len(t, menu[BranchRooms].snapshot(), 1)
	assert.Equal(t, int32(1), wifi.calls.Load())
}

func TestConcurrentActivationsShareOnePass(t *testing.T) {
	menu := newFakeMenu()
	wifi := &fakeWifi{
		networks: []Network{{Name: "A"}},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}, 2),
	}
	r := New(menu, wifi, nil, nil, WithWifiTimeout(time.Second))

	var wg sync.WaitGroup
	reports := make([]Report, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[0], _ = r.ActivateWifi(context.Background())
	}()
	<-wifi.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[1], _ = r.ActivateWifi(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(wifi.gate)
	wg.Wait()

	assert.Equal(t, int32(1), wifi.calls.Load())
	assert.Equal(t, reports[0], reports[1])
	assert.Len(t, menu[BranchWifi].snapshot(), 1)
}

func TestSelectRoutesEveryBuiltNode(t *testing.T) {
	menu := newFakeMenu()
	editor := &recordingEditor{}
	wifi := &fakeWifi{networks: []Network{{Name: `"Home"`, Current: true}, {Name: "Cafe"}}}
	r := New(menu, wifi, RoomList{"Kitchen", "Office"}, editor)

	_, err := r.ActivateWifi(context.Background())
	require.NoError(t, err)
	_, err = r.ActivateRooms(context.Background())
	require.NoError(t, err)

	var want []Target
	for _, key := range []string{BranchWifi, BranchRooms} {
		for _, n := range menu[key].snapshot() {
			ctx, ok := r.Select(n.Key)
			require.True(t, ok, n.Key)
			assert.Equal(t, n.Target, ctx.Target())
			want = append(want, n.Target)
		}
	}
	assert.Equal(t, want, editor.targets)
}

func TestSelectNoMatchLeavesEditorAlone(t *testing.T) {
	editor := &recordingEditor{}
	r := New(newFakeMenu(), nil, nil, editor)

	_, ok := r.Select("mainMenu")
	assert.False(t, ok)
	assert.Empty(t, editor.targets)
}

func TestClickDispatch(t *testing.T) {
	menu := newFakeMenu()
	var opened []Target
	editor := EditorFunc(func(t Target) { opened = append(opened, t) })
	r := New(menu, &fakeWifi{networks: []Network{{Name: "Home"}}}, RoomList{"Kitchen"}, editor)
	ctx := context.Background()

	handled, err := r.Click(ctx, ScreenRooms)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Len(t, menu[BranchRooms].snapshot(), 1)

	handled, err = r.Click(ctx, ScreenWifi)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Len(t, menu[BranchWifi].snapshot(), 1)

	handled, err = r.Click(ctx, "roomKitchen")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []Target{{Room: "Kitchen"}}, opened)

	handled, err = r.Click(ctx, "mainMenu")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestClickRoutesNodesNamedLikeScreens(t *testing.T) {
	menu := newFakeMenu()
	editor := &recordingEditor{}
	names := []string{"BasedScreen", "BasedCategory", "screenRoomBased"}
	wifi := &fakeWifi{networks: []Network{{Name: "BasedScreen"}, {Name: "screenWifiBased"}}}
	r := New(menu, wifi, RoomList(names), editor)
	ctx := context.Background()

	_, err := r.ActivateRooms(ctx)
	require.NoError(t, err)
	_, err = r.ActivateWifi(ctx)
	require.NoError(t, err)
	nodes := append(menu[BranchRooms].snapshot(), menu[BranchWifi].snapshot()...)
	require.Len(t, nodes, 5)

	for _, n := range nodes {
		handled, err := r.Click(ctx, n.Key)
		require.NoError(t, err)
		assert.True(t, handled, n.Key)
	}
	assert.Equal(t, []Target{
		{Room: "BasedScreen"},
		{Room: "BasedCategory"},
		{Room: "screenRoomBased"},
		{SSID: "BasedScreen"},
		{SSID: "screenWifiBased"},
	}, editor.targets)
	assert.Equal(t, int32(1), wifi.calls.Load())
}

func TestClickReportsUnavailableSourceAsHandled(t *testing.T) {
	r := New(newFakeMenu(), &fakeWifi{err: errors.New("down")}, nil, nil)

	handled, err := r.Click(context.Background(), ScreenWifi)
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

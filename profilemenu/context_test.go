package profilemenu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     Candidate
		want   Context
		wantOK bool
	}{
		{"quoted ssid", Candidate{Kind: KindWifi, Name: `"Home Network"`}, Context{KindWifi, "Home Network"}, true},
		{"unquoted ssid", Candidate{Kind: KindWifi, Name: "Cafe"}, Context{KindWifi, "Cafe"}, true},
		{"inner quotes", Candidate{Kind: KindWifi, Name: `"a"b"`}, Context{KindWifi, "ab"}, true},
		{"absent name", Candidate{Kind: KindWifi}, Context{}, false},
		{"only delimiters", Candidate{Kind: KindWifi, Name: `""`}, Context{}, false},
		{"room verbatim", Candidate{Kind: KindRoom, Name: `"Kitchen"`}, Context{KindRoom, `"Kitchen"`}, true},
		{"empty room", Candidate{Kind: KindRoom}, Context{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	c := Candidate{Kind: KindWifi, Name: `"Home Network"`, Current: true}
	first, ok1 := Normalize(c)
	second, ok2 := Normalize(c)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusConnected, Classify(Candidate{Kind: KindWifi, Name: "x", Current: true}))
	assert.Equal(t, StatusNotInRange, Classify(Candidate{Kind: KindWifi, Name: "x"}))
	assert.Equal(t, StatusUnset, Classify(Candidate{Kind: KindRoom, Name: "x", Current: true}))
}

func TestStatusSummary(t *testing.T) {
	assert.Equal(t, "Connected", StatusConnected.Summary())
	assert.Equal(t, "Not in range", StatusNotInRange.Summary())
	assert.Empty(t, StatusUnset.Summary())
}

func TestEntriesDropsNamelessNetworks(t *testing.T) {
	entries, dropped := Entries([]Candidate{
		{Kind: KindWifi, Name: `"Home"`, Current: true},
		{Kind: KindWifi},
		{Kind: KindWifi, Name: "Office"},
	})

	assert.Equal(t, 1, dropped)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{
		Context: Context{KindWifi, "Home"},
		Title:   "Home",
		Status:  StatusConnected,
		Key:     "wifiNetworkHome",
	}, entries[0])
	assert.Equal(t, "Office", entries[1].Title)
	assert.Equal(t, StatusNotInRange, entries[1].Status)
}

func TestEntriesRoomPassThrough(t *testing.T) {
	entries, dropped := Entries([]Candidate{
		{Kind: KindRoom, Name: "Kitchen"},
		{Kind: KindRoom, Name: "Office"},
	})

	assert.Zero(t, dropped)
	require.Len(t, entries, 2)
	assert.Equal(t, Context{KindRoom, "Kitchen"}, entries[0].Context)
	assert.Equal(t, Context{KindRoom, "Office"}, entries[1].Context)
	for _, e := range entries {
		assert.Equal(t, StatusUnset, e.Status)
	}
}

func TestMenuKeyRoundTrip(t *testing.T) {
	for _, ctx := range []Context{
		{KindWifi, "Home Network"},
		{KindWifi, "room"},
		{KindRoom, "Kitchen"},
		{KindRoom, "wifiNetwork"},
	} {
		got, ok := DecodeKey(MenuKey(ctx))
		require.True(t, ok, ctx.String())
		assert.Equal(t, ctx, got)
	}
}

func TestDecodeKeyNoMatch(t *testing.T) {
	for _, key := range []string{"", "mainMenu", "wifiNetwork", "room", "Wifinetworkx"} {
		_, ok := DecodeKey(key)
		assert.False(t, ok, key)
	}
}

func TestFrameworkKeysNeverDecode(t *testing.T) {
	for _, key := range []string{BranchWifi, BranchRooms, ScreenWifi, ScreenRooms} {
		_, ok := DecodeKey(key)
		assert.False(t, ok, key)
	}
}

func TestUnknownKindHasNoBranch(t *testing.T) {
	assert.False(t, Kind(7).Valid())
	assert.Empty(t, Kind(7).Branch())
	assert.Equal(t, BranchWifi, KindWifi.Branch())
	assert.Equal(t, BranchRooms, KindRoom.Branch())
}

func TestContextTarget(t *testing.T) {
	assert.Equal(t, Target{SSID: "Home"}, Context{KindWifi, "Home"}.Target())
	assert.Equal(t, Target{Room: "Kitchen"}, Context{KindRoom, "Kitchen"}.Target())
	assert.Equal(t, "ssid:Home", Target{SSID: "Home"}.String())
	assert.Equal(t, "room:Kitchen", Target{Room: "Kitchen"}.String())
}

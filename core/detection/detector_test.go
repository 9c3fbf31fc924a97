package detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"esim-pricing/core/types"
)

var gib = int64(1024 * 1024 * 1024)

func TestHasFUP1Mbps(t *testing.T) {
	tests := []struct {
		name string
		plan types.Plan
		want bool
	}{
		{"compact marker", types.Plan{Name: "Japan 2GB/Day FUP1Mbps"}, true},
		{"spaced marker", types.Plan{Name: "Japan 2GB/Day fup 1Mbps"}, true},
		{"structured field", types.Plan{Name: "Japan 2GB/Day", FUPPolicy: "1 Mbps"}, true},
		{"other speed", types.Plan{Name: "Japan 2GB/Day FUP512Kbps"}, false},
		{"structured other speed", types.Plan{FUPPolicy: "512Kbps"}, false},
		{"no marker", types.Plan{Name: "Japan 2GB 7Days"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasFUP1Mbps(tt.plan))
		})
	}
}

func TestHasIIJ(t *testing.T) {
	tests := []struct {
		name string
		plan types.Plan
		want bool
	}{
		{"parenthesized", types.Plan{Name: "Japan 5GB 30Days (IIJ)"}, true},
		{"parenthesized lower", types.Plan{Name: "Japan 5GB 30Days (iij)"}, true},
		{"upper token", types.Plan{Name: "Japan IIJ 5GB"}, true},
		{"carrier field", types.Plan{Name: "Japan 5GB", Carrier: "iij"}, true},
		{"embedded lower substring", types.Plan{Name: "Skiijump 5GB"}, false},
		{"plain", types.Plan{Name: "Japan 5GB 30Days"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasIIJ(tt.plan))
		})
	}
}

func TestHasNonHKIP(t *testing.T) {
	assert.True(t, HasNonHKIP(types.Plan{Name: "France 5GB 30Days nonhkip"}))
	assert.True(t, HasNonHKIP(types.Plan{Name: "France 5GB", Route: "NonHKIP"}))
	assert.False(t, HasNonHKIP(types.Plan{Name: "France 5GB 30Days"}))
}

func TestIsJapan(t *testing.T) {
	assert.True(t, IsJapan("JP"))
	assert.True(t, IsJapan(" jp "))
	assert.True(t, IsJapan("Japan"))
	assert.False(t, IsJapan("KR"))
}

func TestIsDailyUnlimited(t *testing.T) {
	fup := "2GB/Day FUP1Mbps"
	tests := []struct {
		name   string
		volume int64
		label  string
		want   bool
	}{
		{"exact 2 GB", 2 * gib, fup, true},
		{"lower edge", int64(math.Ceil(1.95 * float64(gib))), fup, true},
		{"upper edge", int64(2.05 * float64(gib)), fup, true},
		{"below band", int64(1.9 * float64(gib)), fup, false},
		{"above band", int64(2.1 * float64(gib)), fup, false},
		{"no marker", 2 * gib, "2GB/Day", false},
		{"unlimited sentinel", -1, fup, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := types.Plan{Name: tt.label, VolumeBytes: tt.volume, Duration: 1, DurationUnit: types.DurationDay}
			assert.Equal(t, tt.want, IsDailyUnlimited(plan))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryDailyUnlimited, Classify(types.Plan{Name: "FUP1Mbps", VolumeBytes: 2 * gib}))
	assert.Equal(t, CategoryUnlimited, Classify(types.Plan{VolumeBytes: -1}))
	assert.Equal(t, CategoryFixed, Classify(types.Plan{VolumeBytes: 5 * gib}))
	assert.True(t, CategoryUnlimited.IsUnlimited())
	assert.False(t, CategoryFixed.IsUnlimited())
}

func TestMarkers(t *testing.T) {
	plan := types.Plan{Name: "Japan 2GB FUP1Mbps (IIJ)"}
	assert.Equal(t, []string{"fup1mbps", "iij"}, Markers(plan))
	assert.Empty(t, Markers(types.Plan{Name: "plain"}))
}

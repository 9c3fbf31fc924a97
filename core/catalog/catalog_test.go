package catalog

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esim-pricing/core/types"
)

var gib = int64(1024 * 1024 * 1024)

func gbVolume(gb float64) int64 {
	return int64(math.Round(gb * float64(gib)))
}

func plan(code string, volume int64, duration int, unit types.DurationUnit) types.Plan {
	return types.Plan{
		PackageCode:  code,
		Name:         code,
		VolumeBytes:  volume,
		Duration:     duration,
		DurationUnit: unit,
		PriceUSD:     decimal.NewFromInt(5),
		Location:     "FR",
	}
}

func TestVisibility(t *testing.T) {
	daily := plan("DAILY", 2*gib, 1, types.DurationDay)
	daily.Name = "2GB/Day FUP1Mbps"
	dailyNoMarker := plan("DAILY-PLAIN", 2*gib, 1, types.DurationDay)
	negativePrice := plan("NEG", 5*gib, 7, types.DurationDay)
	negativePrice.PriceUSD = decimal.NewFromInt(-1)

	tests := []struct {
		name string
		plan types.Plan
		want HiddenReason
	}{
		{"daily unlimited one day is shown", daily, Shown},
		{"same plan without FUP marker is hidden", dailyNoMarker, HiddenOneDay},
		{"unlimited multi-day", plan("UL7", -1, 7, types.DurationDay), Shown},
		{"unlimited one day", plan("UL1", -1, 1, types.DurationDay), HiddenOneDay},
		{"unlimited one month", plan("ULM", -1, 1, types.DurationMonth), Shown},
		{"exactly 1.5 GB", plan("S15", gbVolume(1.5), 7, types.DurationDay), HiddenSmall},
		{"1 GB", plan("S1", gib, 30, types.DurationDay), HiddenSmall},
		{"1.51 GB two days", plan("S151", gbVolume(1.51), 2, types.DurationDay), Shown},
		{"5 GB one day", plan("D1", 5*gib, 1, types.DurationDay), HiddenOneDay},
		{"5 GB one day plural unit", plan("D1S", 5*gib, 1, "Days"), HiddenOneDay},
		{"5 GB seven days", plan("D7", 5*gib, 7, types.DurationDay), Shown},
		{"zero duration", plan("Z", 5*gib, 0, types.DurationDay), HiddenMalform},
		{"bad negative volume", plan("BAD", -42, 7, types.DurationDay), HiddenMalform},
		{"negative price", negativePrice, HiddenMalform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visibility(tt.plan))
			assert.Equal(t, tt.want == Shown, IsVisible(tt.plan))
		})
	}
}

func TestFilterVisibleIsStable(t *testing.T) {
	in := []types.Plan{
		plan("A", 5*gib, 7, types.DurationDay),
		plan("B", gib, 7, types.DurationDay),
		plan("C", 10*gib, 30, types.DurationDay),
		plan("D", -1, 1, types.DurationDay),
		plan("E", 3*gib, 15, types.DurationDay),
	}
	got := FilterVisible(in)
	codes := make([]string, len(got))
	for i, p := range got {
		codes[i] = p.PackageCode
	}
	assert.Equal(t, []string{"A", "C", "E"}, codes)
	assert.Len(t, in, 5, "input untouched")
}

func TestDeduplicateJapanPrefersIIJ(t *testing.T) {
	std := plan("JP-STD", 5*gib, 7, types.DurationDay)
	std.Location = "JP"
	std.Name = "Japan 5GB 7Days"
	iij := std
	iij.PackageCode = "JP-IIJ"
	iij.Name = "Japan 5GB 7Days (IIJ)"

	for _, order := range [][]types.Plan{{std, iij}, {iij, std}} {
		got, report := DeduplicateWithReport(order, TiebreakInputOrder)
		require.Len(t, got, 1)
		assert.Equal(t, "JP-IIJ", got[0].PackageCode)
		require.Len(t, report, 1)
		assert.Equal(t, PreferredIIJ, report[0].Reason)
		assert.Equal(t, []string{"JP-STD"}, report[0].Dropped)
	}
}

func TestDeduplicateOtherCountriesPreferNonHKIP(t *testing.T) {
	std := plan("FR-STD", 5*gib, 7, types.DurationDay)
	alt := plan("FR-ALT", 5*gib, 7, types.DurationDay)
	alt.Name = "France 5GB 7Days nonhkip"

	got := Deduplicate([]types.Plan{std, alt}, TiebreakInputOrder)
	require.Len(t, got, 1)
	assert.Equal(t, "FR-ALT", got[0].PackageCode)

	// an IIJ marker means nothing outside Japan
	iij := plan("FR-IIJ", 5*gib, 7, types.DurationDay)
	iij.Name = "France (IIJ)"
	got = Deduplicate([]types.Plan{std, iij}, TiebreakInputOrder)
	assert.Equal(t, "FR-STD", got[0].PackageCode)
}

func TestDeduplicateTiebreak(t *testing.T) {
	b := plan("B", 5*gib, 7, types.DurationDay)
	a := plan("A", 5*gib, 7, types.DurationDay)

	got, report := DeduplicateWithReport([]types.Plan{b, a}, TiebreakInputOrder)
	assert.Equal(t, "B", got[0].PackageCode)
	assert.Equal(t, FirstInInput, report[0].Reason)

	got, report = DeduplicateWithReport([]types.Plan{b, a}, TiebreakPackageCode)
	assert.Equal(t, "A", got[0].PackageCode)
	assert.Equal(t, LowestCode, report[0].Reason)
}

func TestDeduplicateGroupingAndOrder(t *testing.T) {
	fr7 := plan("FR7", 5*gib, 7, types.DurationDay)
	de7 := plan("DE7", 5*gib, 7, types.DurationDay)
	de7.Location = "DE"
	frMulti := plan("EU7", 5*gib, 7, types.DurationDay)
	frMulti.Location = " fr , DE, IT"
	fr30 := plan("FR30", 5*gib, 30, types.DurationDay)
	fr10g := plan("FR10G", 10*gib, 7, types.DurationDay)

	got := Deduplicate([]types.Plan{fr7, de7, frMulti, fr30, fr10g}, TiebreakInputOrder)
	codes := make([]string, len(got))
	for i, p := range got {
		codes[i] = p.PackageCode
	}
	// EU7 groups with FR7 by its first location
	assert.Equal(t, []string{"FR7", "DE7", "FR30", "FR10G"}, codes)
}

func TestParseTiebreak(t *testing.T) {
	tb, err := ParseTiebreak("package_code")
	require.NoError(t, err)
	assert.Equal(t, TiebreakPackageCode, tb)
	assert.Equal(t, "package_code", tb.String())

	tb, err = ParseTiebreak("")
	require.NoError(t, err)
	assert.Equal(t, TiebreakInputOrder, tb)

	_, err = ParseTiebreak("random")
	assert.Error(t, err)
}

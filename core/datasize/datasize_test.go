package datasize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func gbBytes(gb float64) int64 {
	return int64(math.Round(gb * bytesPerGB))
}

func TestBucketKey(t *testing.T) {
	tests := []struct {
		name   string
		volume int64
		want   string
	}{
		{"exact 5 GB", 5 * bytesPerGB, "5"},
		{"4.96 GB rounds up", gbBytes(4.96), "5"},
		{"5.04 GB rounds down", gbBytes(5.04), "5"},
		{"10.5 GB keeps one decimal", gbBytes(10.5), "10.5"},
		{"half GB", 512 * bytesPerMB, "0.5"},
		{"zero", 0, "0"},
		{"unlimited sentinel", -1, UnlimitedBucket},
		{"malformed negative", -5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketKey(tt.volume))
		})
	}
}

func TestNormalizeBucket(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"5", "5", true},
		{"5.0", "5", true},
		{" 5.04 ", "5", true},
		{"10.50", "10.5", true},
		{"3GB", "3", true},
		{"3 gb", "3", true},
		{"ul", UnlimitedBucket, true},
		{"", "", false},
		{"five", "", false},
		{"-1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeBucket(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name   string
		volume int64
		want   string
	}{
		{"237 MB rounds to 240", 237 * bytesPerMB, "240 MB"},
		{"500 MB", 500 * bytesPerMB, "500 MB"},
		{"1 GB", bytesPerGB, "1.0 GB"},
		{"5 GB", 5 * bytesPerGB, "5.0 GB"},
		{"1.56 GB", gbBytes(1.56), "1.6 GB"},
		{"unlimited", -1, "UL"},
		{"malformed", -7, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.volume).Label())
		})
	}
}

func TestBytesConversions(t *testing.T) {
	assert.Equal(t, 2.0, BytesToGB(2*bytesPerGB))
	assert.Equal(t, 1024.0, BytesToMB(bytesPerGB))
}

// Any two volumes within 0.05 GB of the same tenth share its bucket.
func TestBucketStabilityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tenths := rapid.IntRange(0, 1000).Draw(t, "tenths")
		center := float64(tenths) / 10
		d1 := rapid.Float64Range(-0.049, 0.049).Draw(t, "d1")
		d2 := rapid.Float64Range(-0.049, 0.049).Draw(t, "d2")

		v1 := gbBytes(math.Max(0, center+d1))
		v2 := gbBytes(math.Max(0, center+d2))
		if BucketKey(v1) != BucketKey(v2) {
			t.Fatalf("bucket(%d)=%s bucket(%d)=%s around %.1f", v1, BucketKey(v1), v2, BucketKey(v2), center)
		}
	})
}

// Sub-GB sizes are always whole tens of MB.
func TestDisplayMegabytesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int64Range(0, bytesPerGB-1).Draw(t, "volume")
		size := Display(v)
		if size.Unit != "MB" {
			t.Fatalf("unit = %q for %d bytes", size.Unit, v)
		}
		if !strings.HasSuffix(size.Value, "0") {
			t.Fatalf("value %q is not a multiple of 10", size.Value)
		}
	})
}

// Package datasize converts raw byte volumes into display sizes and the
// GB bucket keys used for size-based discount lookup.
package datasize

import (
	"math"
	"strconv"
	"strings"

	"esim-pricing/core/types"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// UnlimitedBucket is the bucket key for the uncapped volume sentinel
const UnlimitedBucket = "UL"

// BytesToGB converts bytes to binary gigabytes. The -1 sentinel is the caller's concern.
func BytesToGB(volumeBytes int64) float64 {
	return float64(volumeBytes) / bytesPerGB
}

// BytesToMB converts bytes to binary megabytes
func BytesToMB(volumeBytes int64) float64 {
	return float64(volumeBytes) / bytesPerMB
}

// roundTenth rounds half away from zero to one decimal place
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatTenth(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BucketKey returns the discount bucket for a volume: GB rounded to the
// nearest 0.1 with no trailing zero ("5", "10.5"). 4.96 GB and 5.04 GB both
// land in "5". The unlimited sentinel maps to UnlimitedBucket; any other
// negative volume has no bucket.
func BucketKey(volumeBytes int64) string {
	switch {
	case volumeBytes == types.UnlimitedVolume:
		return UnlimitedBucket
	case volumeBytes < 0:
		return ""
	}
	return formatTenth(roundTenth(BytesToGB(volumeBytes)))
}

// NormalizeBucket canonicalizes an operator-entered bucket key so that
// "5.0", " 5 " and "5.04" all become "5". ok is false for keys that are not
// a non-negative number or UnlimitedBucket.
func NormalizeBucket(key string) (string, bool) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == UnlimitedBucket {
		return UnlimitedBucket, true
	}
	key = strings.TrimSpace(strings.TrimSuffix(key, "GB"))
	gb, err := strconv.ParseFloat(key, 64)
	if err != nil || gb < 0 || math.IsInf(gb, 0) || math.IsNaN(gb) {
		return "", false
	}
	return formatTenth(roundTenth(gb)), true
}

// Size is a display size such as {"240", "MB"} or {"5.0", "GB"}
type Size struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Label renders the size as shown on plan cards ("240 MB", "UL")
func (s Size) Label() string {
	if s.Unit == "" {
		return s.Value
	}
	return s.Value + " " + s.Unit
}

// Display renders a volume for plan cards. Sub-GB volumes show MB rounded to
// the nearest 10; larger ones show GB to one decimal. Plans whose labels are
// equal are the same size for grouping.
func Display(volumeBytes int64) Size {
	switch {
	case volumeBytes == types.UnlimitedVolume:
		return Size{Value: UnlimitedBucket}
	case volumeBytes < 0:
		return Size{}
	}

	gb := BytesToGB(volumeBytes)
	if gb < 1 {
		mb := math.Round(BytesToMB(volumeBytes)/10) * 10
		return Size{Value: strconv.FormatFloat(mb, 'f', 0, 64), Unit: "MB"}
	}
	return Size{Value: strconv.FormatFloat(roundTenth(gb), 'f', 1, 64), Unit: "GB"}
}

package catalog

import (
	"fmt"

	"github.com/samber/lo"

	"esim-pricing/core/detection"
	"esim-pricing/core/types"
)

// Tiebreak picks the survivor of a duplicate group that has no preferred variant
type Tiebreak int

const (
	// TiebreakInputOrder keeps the first member in catalog order
	TiebreakInputOrder Tiebreak = iota

	// TiebreakPackageCode keeps the member with the lowest package code,
	// independent of the order the catalog returned rows in
	TiebreakPackageCode
)

// ParseTiebreak maps a config value to a Tiebreak
func ParseTiebreak(s string) (Tiebreak, error) {
	switch s {
	case "input_order", "":
		return TiebreakInputOrder, nil
	case "package_code":
		return TiebreakPackageCode, nil
	default:
		return TiebreakInputOrder, fmt.Errorf("unknown dedup tiebreak %q (want input_order or package_code)", s)
	}
}

// String returns the config name
func (t Tiebreak) String() string {
	if t == TiebreakPackageCode {
		return "package_code"
	}
	return "input_order"
}

// GroupKey identifies plans that represent the same offer. Multi-country
// plans group by their first listed location only.
type GroupKey struct {
	Location     string
	Duration     int
	DurationUnit types.DurationUnit
	VolumeBytes  int64
}

// KeyOf returns the duplicate group key of a plan
func KeyOf(plan types.Plan) GroupKey {
	return GroupKey{
		Location:     plan.PrimaryLocation(),
		Duration:     plan.Duration,
		DurationUnit: plan.DurationUnit.Normalize(),
		VolumeBytes:  plan.VolumeBytes,
	}
}

// CollapseReason says how a duplicate group picked its survivor
type CollapseReason string

const (
	PreferredIIJ     CollapseReason = "iij_variant"
	PreferredNonHKIP CollapseReason = "nonhkip_variant"
	FirstInInput     CollapseReason = "first_in_input"
	LowestCode       CollapseReason = "lowest_package_code"
)

// Collapse records one duplicate group that was reduced to a single plan
type Collapse struct {
	Key     GroupKey       `json:"key"`
	Kept    string         `json:"kept"`
	Dropped []string       `json:"dropped"`
	Reason  CollapseReason `json:"reason"`
}

// Deduplicate collapses duplicate carrier variants to one plan per group.
// Japan groups prefer the IIJ variant; all others prefer the nonhkip route.
// Survivors are returned in order of each group's first appearance.
func Deduplicate(plans []types.Plan, tiebreak Tiebreak) []types.Plan {
	out, _ := DeduplicateWithReport(plans, tiebreak)
	return out
}

// DeduplicateWithReport is Deduplicate plus a record of every collapsed group
func DeduplicateWithReport(plans []types.Plan, tiebreak Tiebreak) ([]types.Plan, []Collapse) {
	var order []GroupKey
	groups := make(map[GroupKey][]types.Plan)
	for _, p := range plans {
		k := KeyOf(p)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], p)
	}

	out := make([]types.Plan, 0, len(order))
	var collapses []Collapse
	for _, k := range order {
		members := groups[k]
		if len(members) == 1 {
			out = append(out, members[0])
			continue
		}

		idx, reason := pick(k, members, tiebreak)
		kept := members[idx]
		out = append(out, kept)
		collapses = append(collapses, Collapse{
			Key:  k,
			Kept: kept.PackageCode,
			Dropped: lo.FilterMap(members, func(p types.Plan, i int) (string, bool) {
				return p.PackageCode, i != idx
			}),
			Reason: reason,
		})
	}
	return out, collapses
}

func pick(key GroupKey, members []types.Plan, tiebreak Tiebreak) (int, CollapseReason) {
	preferred, reason := detection.HasNonHKIP, PreferredNonHKIP
	if detection.IsJapan(key.Location) {
		preferred, reason = detection.HasIIJ, PreferredIIJ
	}
	if _, idx, ok := lo.FindIndexOf(members, preferred); ok {
		return idx, reason
	}

	if tiebreak == TiebreakPackageCode {
		lowest := 0
		for i, p := range members {
			if p.PackageCode < members[lowest].PackageCode {
				lowest = i
			}
		}
		return lowest, LowestCode
	}
	return 0, FirstInInput
}

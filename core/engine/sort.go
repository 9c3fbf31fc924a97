package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"esim-pricing/core/datasize"
	"esim-pricing/core/types"
)

// SortField selects the quote ordering
type SortField string

const (
	SortByPrice    SortField = "price"
	SortBySize     SortField = "size"
	SortByDuration SortField = "duration"
)

// ParseSortField maps a user value to a SortField; empty means price
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByPrice, nil
	case SortByPrice, SortBySize, SortByDuration:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (want price, size or duration)", s)
	}
}

// SizeGroup is a run of quotes that display with the same size label
type SizeGroup struct {
	Label  string  `json:"label"`
	Quotes []Quote `json:"quotes"`
}

// GroupBySize groups quotes by their display size label in order of first
// appearance. Daily-unlimited and unlimited quotes share the "Unlimited" group.
func GroupBySize(quotes []Quote) []SizeGroup {
	var groups []SizeGroup
	index := make(map[string]int)
	for _, q := range quotes {
		label := groupLabel(q)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, SizeGroup{Label: label})
		}
		groups[i].Quotes = append(groups[i].Quotes, q)
	}
	return groups
}

func groupLabel(q Quote) string {
	if q.Category.IsUnlimited() {
		return "Unlimited"
	}
	return q.Size.Label()
}

// SortQuotes returns a copy of quotes ordered by field, ascending unless
// desc. Equal keys keep their input order.
func SortQuotes(quotes []Quote, field SortField, desc bool) []Quote {
	out := slices.Clone(quotes)
	slices.SortStableFunc(out, func(a, b Quote) int {
		c := compare(a, b, field)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compare(a, b Quote, field SortField) int {
	switch field {
	case SortBySize:
		return compareVolume(a.Plan.VolumeBytes, b.Plan.VolumeBytes)
	case SortByDuration:
		return compareDuration(a.Plan, b.Plan)
	default:
		return a.FinalUSD.Cmp(b.FinalUSD)
	}
}

// compareVolume orders unlimited after every finite size
func compareVolume(a, b int64) int {
	au, bu := a == types.UnlimitedVolume, b == types.UnlimitedVolume
	switch {
	case au && bu:
		return 0
	case au:
		return 1
	case bu:
		return -1
	}
	return cmp.Compare(datasize.BytesToGB(a), datasize.BytesToGB(b))
}

func compareDuration(a, b types.Plan) int {
	return cmp.Compare(durationDays(a), durationDays(b))
}

// durationDays approximates months as 30 days for ordering only
func durationDays(p types.Plan) int {
	if p.DurationUnit.Normalize() == types.DurationMonth {
		return p.Duration * 30
	}
	return p.Duration
}

package report

import (
	"sort"
	"strconv"
	"strings"
)

// TopN is the truncation used for the channel and page rankings
const TopN = 5

// Order selects how GroupAndRank sorts groups
type Order int

const (
	ByValueDesc Order = iota
	ByKeyAsc
)

// RankOptions parameterises GroupAndRank. TopN only applies to ByValueDesc;
// zero means no truncation.
type RankOptions struct {
	Order Order
	TopN  int
}

// Entry is one group of a Breakdown
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Breakdown is a ranked list of groups
type Breakdown []Entry

// GroupAndRank groups rows by key, sums value per group and orders the
// groups. Ties under ByValueDesc keep first-seen order.
func GroupAndRank[T any](rows []T, key func(T) string, value func(T) float64, opts RankOptions) Breakdown {
	out := Breakdown{}
	index := make(map[string]int)

	for _, row := range rows {
		k := key(row)
		if i, ok := index[k]; ok {
			out[i].Value += value(row)
			continue
		}
		index[k] = len(out)
		out = append(out, Entry{Key: k, Value: value(row)})
	}

	switch opts.Order {
	case ByKeyAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
		if opts.TopN > 0 && len(out) > opts.TopN {
			out = out[:opts.TopN]
		}
	}

	return out
}

// Keys returns the group keys in rank order
func (b Breakdown) Keys() []string {
	keys := make([]string, len(b))
	for i, e := range b {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the summed value of a group
func (b Breakdown) Get(key string) (float64, bool) {
	for _, e := range b {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

// Max returns the largest value, used to scale bar charts
func (b Breakdown) Max() float64 {
	var m float64
	for _, e := range b {
		if e.Value > m {
			m = e.Value
		}
	}
	return m
}

// String renders "key value" pairs separated by commas
func (b Breakdown) String() string {
	parts := make([]string, len(b))
	for i, e := range b {
		parts[i] = e.Key + " " + strconv.FormatFloat(e.Value, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func detailUsers(r DetailRow) float64 { return float64(r.ActiveUsers) }

// ChannelBreakdown is the top 5 channels by active users
func ChannelBreakdown(rows []DetailRow) Breakdown {
	return GroupAndRank(rows, func(r DetailRow) string { return r.Channel }, detailUsers,
		RankOptions{Order: ByValueDesc, TopN: TopN})
}

// AgeBreakdown is every age bracket sorted by bracket
func AgeBreakdown(rows []DetailRow) Breakdown {
	return GroupAndRank(rows, func(r DetailRow) string { return r.AgeBracket }, detailUsers,
		RankOptions{Order: ByKeyAsc})
}

// DeviceBreakdown is every device category by active users
func DeviceBreakdown(rows []DetailRow) Breakdown {
	return GroupAndRank(rows, func(r DetailRow) string { return r.DeviceCategory }, detailUsers,
		RankOptions{Order: ByValueDesc})
}

// PageRanking is the top 5 page titles by views
func PageRanking(rows []PageRow) Breakdown {
	return GroupAndRank(rows,
		func(r PageRow) string { return r.PageTitle },
		func(r PageRow) float64 { return float64(r.PageViews) },
		RankOptions{Order: ByValueDesc, TopN: TopN})
}

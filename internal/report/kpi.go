package report

import "ga4insight/internal/query"

// Positions inside a KPIVector
const (
	ActiveUsers = iota
	Sessions
	Conversions
	AvgSessionDuration

	kpiCount
)

// KPILabels are the card titles in KPIVector order
var KPILabels = [kpiCount]string{
	"訪問ユーザー数",
	"サイト訪問回数",
	"成果（CV）数",
	"平均サイト滞在時間",
}

// KPIVector holds [active users, sessions, conversions, avg session seconds]
// for one date window. The zero value stands for "no rows returned".
type KPIVector [kpiCount]float64

// ComputeDeltas subtracts previous from current per metric. Negative deltas
// are kept as is.
func ComputeDeltas(current, previous KPIVector) KPIVector {
	var delta KPIVector
	for i := range delta {
		delta[i] = current[i] - previous[i]
	}
	return delta
}

// Direction of a period-over-period change
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Comparison represents one metric compared between the two windows
type Comparison struct {
	Metric           string    `json:"metric"`
	Label            string    `json:"label"`
	CurrentValue     float64   `json:"current_value"`
	PreviousValue    float64   `json:"previous_value"`
	AbsoluteChange   float64   `json:"absolute_change"`
	PercentageChange float64   `json:"percentage_change"` // 0 when previous is 0
	Direction        Direction `json:"direction"`
}

// Compare expands ComputeDeltas with percentage change and direction
func Compare(current, previous KPIVector) []Comparison {
	delta := ComputeDeltas(current, previous)
	out := make([]Comparison, 0, kpiCount)
	for i := range delta {
		c := Comparison{
			Metric:         query.KPIMetrics[i],
			Label:          KPILabels[i],
			CurrentValue:   current[i],
			PreviousValue:  previous[i],
			AbsoluteChange: delta[i],
			Direction:      DirectionStable,
		}
		if previous[i] != 0 {
			c.PercentageChange = delta[i] / previous[i] * 100
		}
		switch {
		case delta[i] > 0:
			c.Direction = DirectionUp
		case delta[i] < 0:
			c.Direction = DirectionDown
		}
		out = append(out, c)
	}
	return out
}

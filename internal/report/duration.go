package report

import (
	"fmt"
	"math"
)

// ZeroDuration is printed for exactly zero seconds
const ZeroDuration = "0秒"

// FormatDuration renders seconds as "M分S秒". Minutes are floored and the
// remainder is a floor-modulo rounded half to even, so -30 becomes "-1分30秒".
func FormatDuration(seconds float64) string {
	if seconds == 0 {
		return ZeroDuration
	}

	minutes := math.Floor(seconds / 60)
	rest := math.Mod(seconds, 60)
	if rest < 0 {
		rest += 60
	}

	return fmt.Sprintf("%d分%d秒", int64(minutes), int64(math.RoundToEven(rest)))
}

// FormatSignedDuration renders the magnitude with an explicit sign, e.g. "-0分30秒"
func FormatSignedDuration(seconds float64) string {
	switch {
	case seconds == 0:
		return ZeroDuration
	case seconds < 0:
		return "-" + FormatDuration(-seconds)
	default:
		return "+" + FormatDuration(seconds)
	}
}

// DurationDelta picks the delta renderer according to the signed switch
func DurationDelta(seconds float64, signed bool) string {
	if signed {
		return FormatSignedDuration(seconds)
	}
	return FormatDuration(seconds)
}

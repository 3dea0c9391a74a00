package report

import "time"

const (
	WindowDays = 30
	dateLayout = "2006-01-02"
)

// DateWindow is an inclusive range of calendar dates
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindows derives the current [today-29, today] and previous
// [today-59, today-30] windows. Only the calendar date of today is used.
func NewWindows(today time.Time) (current, previous DateWindow) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	current = DateWindow{
		Start: day.AddDate(0, 0, -(WindowDays - 1)),
		End:   day,
	}
	previous = DateWindow{
		Start: day.AddDate(0, 0, -(2*WindowDays - 1)),
		End:   day.AddDate(0, 0, -WindowDays),
	}
	return current, previous
}

// StartDate formats the first day as YYYY-MM-DD
func (w DateWindow) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate formats the last day as YYYY-MM-DD
func (w DateWindow) EndDate() string { return w.End.Format(dateLayout) }

// Days counts the days in the window, both ends included
func (w DateWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w DateWindow) String() string {
	return w.StartDate() + " 〜 " + w.EndDate()
}

package score

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	// 2026-01-19 is a Monday; the following seven days cover every weekday.
	monday := date(2026, time.January, 19)

	tests := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{name: "monday is its own week start", day: monday, want: monday},
		{name: "tuesday", day: date(2026, time.January, 20), want: monday},
		{name: "wednesday", day: date(2026, time.January, 21), want: monday},
		{name: "thursday", day: date(2026, time.January, 22), want: monday},
		{name: "friday", day: date(2026, time.January, 23), want: monday},
		{name: "saturday", day: date(2026, time.January, 24), want: monday},
		{name: "sunday belongs to the ending week", day: date(2026, time.January, 25), want: monday},
		{name: "next monday starts a new week", day: date(2026, time.January, 26), want: date(2026, time.January, 26)},
		{name: "across month boundary", day: date(2026, time.February, 1), want: date(2026, time.January, 26)},
		{name: "time of day is ignored", day: time.Date(2026, time.January, 25, 23, 59, 59, 0, time.UTC), want: monday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.day)
			if !got.Equal(tt.want) {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.day.Format(DateLayout), got.Format(DateLayout), tt.want.Format(DateLayout))
			}
			if got.Weekday() != time.Monday {
				t.Errorf("WeekStart(%s) = %s is not a Monday", tt.day.Format(DateLayout), got.Weekday())
			}
			if days := int(DateOf(tt.day).Sub(got).Hours() / 24); days < 0 || days > 6 {
				t.Errorf("WeekStart(%s) is %d days back, want 0-6", tt.day.Format(DateLayout), days)
			}
		})
	}
}

func TestCurrentWeek(t *testing.T) {
	from, to := CurrentWeek(date(2026, time.January, 22)) // a Thursday
	if want := date(2026, time.January, 19); !from.Equal(want) {
		t.Errorf("from = %s, want %s", from.Format(DateLayout), want.Format(DateLayout))
	}
	if want := date(2026, time.January, 22); !to.Equal(want) {
		t.Errorf("to = %s, want %s", to.Format(DateLayout), want.Format(DateLayout))
	}
}

func TestWeekToMonthEnd(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "mid month",
			now:      date(2026, time.January, 22),
			wantFrom: date(2026, time.January, 19),
			wantTo:   date(2026, time.January, 31),
		},
		{
			name:     "week straddles month boundary",
			now:      date(2026, time.February, 1), // Sunday of the week starting Jan 26
			wantFrom: date(2026, time.January, 26),
			wantTo:   date(2026, time.February, 28),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := WeekToMonthEnd(tt.now)
			if !from.Equal(tt.wantFrom) {
				t.Errorf("from = %s, want %s", from.Format(DateLayout), tt.wantFrom.Format(DateLayout))
			}
			if !to.Equal(tt.wantTo) {
				t.Errorf("to = %s, want %s", to.Format(DateLayout), tt.wantTo.Format(DateLayout))
			}
		})
	}
}

func TestLastNDays(t *testing.T) {
	from, to := LastNDays(date(2026, time.January, 22), 7)
	if want := date(2026, time.January, 16); !from.Equal(want) {
		t.Errorf("from = %s, want %s", from.Format(DateLayout), want.Format(DateLayout))
	}
	if want := date(2026, time.January, 22); !to.Equal(want) {
		t.Errorf("to = %s, want %s", to.Format(DateLayout), want.Format(DateLayout))
	}
}

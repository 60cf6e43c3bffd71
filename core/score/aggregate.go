package score

import (
	"math"
	"sort"
	"time"
)

// Guest invitation tiers; thresholds are fixed program rules.
const (
	GuestLevelMaster  = "Master Inviter" // >= 15
	GuestLevelGreat   = "Great Inviter"  // >= 10
	GuestLevelGood    = "Good Inviter"   // >= 5
	GuestLevelStarter = "Starter"
)

type (
	// StudentRollup aggregates a student's individual scores over a window.
	StudentRollup struct {
		StudentID     string  `json:"student_id"`
		Name          string  `json:"name"`
		TotalPoints   int     `json:"total_points"`
		DaysEvaluated int     `json:"days_evaluated"`
		AveragePerDay float64 `json:"average_per_day"` // 1 decimal
	}

	// ClassroomRollup aggregates a classroom's group scores over a window.
	ClassroomRollup struct {
		ClassroomID   string  `json:"classroom_id"`
		Name          string  `json:"name"`
		TotalPoints   int     `json:"total_points"`
		DaysEvaluated int     `json:"days_evaluated"`
		AveragePoints float64 `json:"average_points"` // 2 decimals
	}

	// GuestTotal is a student's cumulative guest count over a window.
	GuestTotal struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		Guests    int    `json:"guests"`
		Level     string `json:"level"`
	}
)

// RollupIndividualScores groups rows by student, sums the six criteria across
// distinct days and averages per day. Students with no rows are absent from the
// result. Ordering: total points descending, then name ascending.
func RollupIndividualScores(scores []IndividualScore, names map[string]string) []StudentRollup {
	totals := make(map[string]int)
	days := make(map[string]map[time.Time]struct{})

	for _, s := range scores {
		totals[s.StudentID] += s.DayTotal()
		dates, ok := days[s.StudentID]
		if !ok {
			dates = make(map[time.Time]struct{})
			days[s.StudentID] = dates
		}
		dates[DateOf(s.Date)] = struct{}{}
	}

	rollups := make([]StudentRollup, 0, len(totals))
	for id, total := range totals {
		n := len(days[id])
		rollups = append(rollups, StudentRollup{
			StudentID:     id,
			Name:          names[id],
			TotalPoints:   total,
			DaysEvaluated: n,
			AveragePerDay: round1(safeDiv(total, n)),
		})
	}

	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].TotalPoints != rollups[j].TotalPoints {
			return rollups[i].TotalPoints > rollups[j].TotalPoints
		}
		return rollups[i].Name < rollups[j].Name
	})
	return rollups
}

// RollupGroupScores is the classroom counterpart of RollupIndividualScores.
// Ordering: average points descending (classrooms are evaluated on unequal day
// counts, so totals would favor the most-evaluated one), then name ascending.
func RollupGroupScores(scores []GroupScore, names map[string]string) []ClassroomRollup {
	totals := make(map[string]int)
	days := make(map[string]map[time.Time]struct{})

	for _, s := range scores {
		totals[s.ClassroomID] += s.DayTotal()
		dates, ok := days[s.ClassroomID]
		if !ok {
			dates = make(map[time.Time]struct{})
			days[s.ClassroomID] = dates
		}
		dates[DateOf(s.Date)] = struct{}{}
	}

	rollups := make([]ClassroomRollup, 0, len(totals))
	for id, total := range totals {
		n := len(days[id])
		rollups = append(rollups, ClassroomRollup{
			ClassroomID:   id,
			Name:          names[id],
			TotalPoints:   total,
			DaysEvaluated: n,
			AveragePoints: round2(safeDiv(total, n)),
		})
	}

	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].AveragePoints != rollups[j].AveragePoints {
			return rollups[i].AveragePoints > rollups[j].AveragePoints
		}
		return rollups[i].Name < rollups[j].Name
	})
	return rollups
}

// RankGuestTotals sums guests per student and ranks them: total descending,
// name ascending. Students with no rows are absent; students with rows but a
// zero total are kept (they were evaluated, they just brought nobody).
func RankGuestTotals(scores []IndividualScore, names map[string]string) []GuestTotal {
	totals := make(map[string]int)
	for _, s := range scores {
		totals[s.StudentID] += s.Guests
	}

	ranking := make([]GuestTotal, 0, len(totals))
	for id, total := range totals {
		ranking = append(ranking, GuestTotal{
			StudentID: id,
			Name:      names[id],
			Guests:    total,
			Level:     GuestLevelFor(total),
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Guests != ranking[j].Guests {
			return ranking[i].Guests > ranking[j].Guests
		}
		return ranking[i].Name < ranking[j].Name
	})
	return ranking
}

// GuestChampion returns the top-ranked guest inviter, or nil when nobody
// brought a guest in the window.
func GuestChampion(ranking []GuestTotal) *GuestTotal {
	if len(ranking) == 0 || ranking[0].Guests == 0 {
		return nil
	}
	champion := ranking[0]
	return &champion
}

// GuestLevelFor maps a guest total to its tier label.
func GuestLevelFor(total int) string {
	switch {
	case total >= 15:
		return GuestLevelMaster
	case total >= 10:
		return GuestLevelGreat
	case total >= 5:
		return GuestLevelGood
	default:
		return GuestLevelStarter
	}
}

func safeDiv(total, days int) float64 {
	if days == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

// round1 rounds half away from zero to 1 decimal.
func round1(x float64) float64 { return math.Round(x*10) / 10 }

// round2 rounds half away from zero to 2 decimals.
func round2(x float64) float64 { return math.Round(x*100) / 100 }

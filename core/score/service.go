package score

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/student"
)

// DefaultGuestWindowDays is the rolling window of the guest championship.
const DefaultGuestWindowDays = 7

var (
	// errors
	ErrNotFound = errors.New("score not found")
)

type (
	Repository interface {
		// UpsertIndividualScore inserts the row for (student, date) or updates it
		// when it already exists. Last write wins; there is no version check, so
		// two staff members scoring the same student the same day silently
		// overwrite each other (known, accepted for this tool).
		UpsertIndividualScore(ctx context.Context, s IndividualScore) (IndividualScore, error)
		// UpsertGroupScore: same contract, keyed by (classroom, date).
		UpsertGroupScore(ctx context.Context, s GroupScore) (GroupScore, error)
		// QueryIndividualScores returns rows within [From, To] (inclusive),
		// optionally restricted to one student.
		QueryIndividualScores(ctx context.Context, filter QueryFilter) ([]IndividualScore, error)
		QueryGroupScores(ctx context.Context, filter QueryFilter) ([]GroupScore, error)
		// QueryEvaluations lists the (student, date) pairs evaluated on `date`.
		QueryEvaluations(ctx context.Context, date time.Time) ([]Evaluation, error)
	}

	Service struct {
		repo     Repository
		students *student.Service
		rooms    *classroom.Service
		nowFunc  func() time.Time

		mu    sync.RWMutex
		cache map[string]interface{} // report cache, flushed on change notifications
	}

	// StudentReport ranks students by total points over a window.
	StudentReport struct {
		From    string          `json:"from"`
		To      string          `json:"to"`
		Ranking []StudentRollup `json:"ranking"`
	}

	// ClassroomReport ranks classrooms by average points over a window.
	ClassroomReport struct {
		From    string            `json:"from"`
		To      string            `json:"to"`
		Ranking []ClassroomRollup `json:"ranking"`
	}

	// GuestReport ranks students by guests brought over a rolling window.
	GuestReport struct {
		From     string       `json:"from"`
		To       string       `json:"to"`
		Ranking  []GuestTotal `json:"ranking"`
		Champion *GuestTotal  `json:"champion"` // null when nobody brought a guest
	}
)

func NewService(repo Repository, stdSvc *student.Service, roomSvc *classroom.Service) *Service {
	return &Service{
		repo:     repo,
		students: stdSvc,
		rooms:    roomSvc,
		nowFunc:  time.Now,
		cache:    make(map[string]interface{}),
	}
}

// UpsertIndividual records a teacher's daily evaluation of a student.
func (svc *Service) UpsertIndividual(ctx context.Context, ns NewIndividualScore, recordedBy string) (IndividualScore, error) {
	std, err := svc.students.GetByID(ctx, ns.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return IndividualScore{}, core.NewValidationError(err,
				core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return IndividualScore{}, errors.Wrap(err, "checking student")
	}
	if std.IsActive != nil && !*std.IsActive {
		return IndividualScore{}, core.NewValidationError(errors.New("student is inactive"),
			core.FieldError{Field: "student_id", Error: "student is inactive"})
	}

	now := time.Now().UTC()
	s := IndividualScore{
		StudentID:      ns.StudentID,
		Date:           ns.Date(),
		Attitude:       ns.Attitude,
		Punctuality:    ns.Punctuality,
		Enthusiasm:     ns.Enthusiasm,
		CraftWork:      ns.CraftWork,
		MemoryVerse:    ns.MemoryVerse,
		ScriptureReady: ns.ScriptureReady,
		Guests:         ns.Guests,
		RecordedBy:     recordedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s, err = svc.repo.UpsertIndividualScore(ctx, s)
	if err != nil {
		return IndividualScore{}, errors.Wrap(err, "upserting individual score")
	}
	svc.FlushReports()
	return s, nil
}

// UpsertGroup records a judge's daily evaluation of a classroom.
func (svc *Service) UpsertGroup(ctx context.Context, ns NewGroupScore, recordedBy string) (GroupScore, error) {
	if _, err := svc.rooms.GetByID(ctx, ns.ClassroomID); err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return GroupScore{}, core.NewValidationError(err,
				core.FieldError{Field: "classroom_id", Error: err.Error()})
		}
		return GroupScore{}, errors.Wrap(err, "checking classroom")
	}

	now := time.Now().UTC()
	s := GroupScore{
		ClassroomID:    ns.ClassroomID,
		Date:           ns.Date(),
		Punctuality:    ns.Punctuality,
		Enthusiasm:     ns.Enthusiasm,
		Order:          ns.Order,
		MemoryVerse:    ns.MemoryVerse,
		CorrectAnswers: ns.CorrectAnswers,
		RecordedBy:     recordedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s, err := svc.repo.UpsertGroupScore(ctx, s)
	if err != nil {
		return GroupScore{}, errors.Wrap(err, "upserting group score")
	}
	svc.FlushReports()
	return s, nil
}

func (svc *Service) QueryIndividual(ctx context.Context, filter QueryFilter) ([]IndividualScore, error) {
	return svc.repo.QueryIndividualScores(ctx, filter)
}

func (svc *Service) QueryGroup(ctx context.Context, filter QueryFilter) ([]GroupScore, error) {
	return svc.repo.QueryGroupScores(ctx, filter)
}

// EvaluatedOn lists the (student, date) pairs evaluated on the given day.
func (svc *Service) EvaluatedOn(ctx context.Context, date time.Time) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, DateOf(date))
}

// StudentRankings computes the per-student report for [from, to].
func (svc *Service) StudentRankings(ctx context.Context, from, to time.Time) (StudentReport, error) {
	key := cacheKey("students", from, to)
	if report, ok := svc.cached(key); ok {
		return report.(StudentReport), nil
	}

	scores, err := svc.repo.QueryIndividualScores(ctx, QueryFilter{From: from, To: to})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying individual scores")
	}
	names, err := svc.studentNames(ctx)
	if err != nil {
		return StudentReport{}, err
	}

	report := StudentReport{
		From:    from.Format(DateLayout),
		To:      to.Format(DateLayout),
		Ranking: RollupIndividualScores(scores, names),
	}
	svc.store(key, report)
	return report, nil
}

// ClassroomRankings computes the per-classroom report for [from, to].
func (svc *Service) ClassroomRankings(ctx context.Context, from, to time.Time) (ClassroomReport, error) {
	key := cacheKey("classrooms", from, to)
	if report, ok := svc.cached(key); ok {
		return report.(ClassroomReport), nil
	}

	scores, err := svc.repo.QueryGroupScores(ctx, QueryFilter{From: from, To: to})
	if err != nil {
		return ClassroomReport{}, errors.Wrap(err, "querying group scores")
	}
	rooms, err := svc.rooms.Query(ctx, nil)
	if err != nil {
		return ClassroomReport{}, errors.Wrap(err, "querying classrooms")
	}
	names := make(map[string]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}

	report := ClassroomReport{
		From:    from.Format(DateLayout),
		To:      to.Format(DateLayout),
		Ranking: RollupGroupScores(scores, names),
	}
	svc.store(key, report)
	return report, nil
}

// GuestRankings computes the guest championship over the last `days` days.
func (svc *Service) GuestRankings(ctx context.Context, days int) (GuestReport, error) {
	if days <= 0 {
		days = DefaultGuestWindowDays
	}
	from, to := LastNDays(svc.nowFunc(), days)

	key := cacheKey("guests", from, to)
	if report, ok := svc.cached(key); ok {
		return report.(GuestReport), nil
	}

	scores, err := svc.repo.QueryIndividualScores(ctx, QueryFilter{From: from, To: to})
	if err != nil {
		return GuestReport{}, errors.Wrap(err, "querying individual scores")
	}
	names, err := svc.studentNames(ctx)
	if err != nil {
		return GuestReport{}, err
	}

	ranking := RankGuestTotals(scores, names)
	report := GuestReport{
		From:     from.Format(DateLayout),
		To:       to.Format(DateLayout),
		Ranking:  ranking,
		Champion: GuestChampion(ranking),
	}
	svc.store(key, report)
	return report, nil
}

// FlushReports drops all cached reports. Called after local writes and on
// database change notifications.
func (svc *Service) FlushReports() {
	svc.mu.Lock()
	svc.cache = make(map[string]interface{})
	svc.mu.Unlock()
}

func (svc *Service) studentNames(ctx context.Context) (map[string]string, error) {
	students, err := svc.students.Query(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	names := make(map[string]string, len(students))
	for _, std := range students {
		names[std.ID] = std.FullName()
	}
	return names, nil
}

func (svc *Service) cached(key string) (interface{}, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	report, ok := svc.cache[key]
	return report, ok
}

func (svc *Service) store(key string, report interface{}) {
	svc.mu.Lock()
	svc.cache[key] = report
	svc.mu.Unlock()
}

func cacheKey(kind string, from, to time.Time) string {
	return fmt.Sprintf("%s|%s|%s", kind, from.Format(DateLayout), to.Format(DateLayout))
}

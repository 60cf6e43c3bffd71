package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jvaldes/premios/core/score"
)

const (
	individualTable = "puntuacion_individual_diaria"
	groupTable      = "puntuacion_grupal_diaria"
)

var (
	individualColumns = []string{
		"id", "alumno_id", "fecha", "attitude", "punctuality", "enthusiasm",
		"craft_work", "memory_verse", "scripture_ready", "guests",
		"recorded_by", "created_at", "updated_at",
	}
	groupColumns = []string{
		"id", "classroom_id", "fecha", "punctuality", "enthusiasm", "group_order",
		"memory_verse", "correct_answers", "recorded_by", "created_at", "updated_at",
	}
)

type individualScoreRow struct {
	ID             string      `db:"id"`
	StudentID      string      `db:"alumno_id"`
	Fecha          time.Time   `db:"fecha"`
	Attitude       int         `db:"attitude"`
	Punctuality    int         `db:"punctuality"`
	Enthusiasm     int         `db:"enthusiasm"`
	CraftWork      int         `db:"craft_work"`
	MemoryVerse    int         `db:"memory_verse"`
	ScriptureReady int         `db:"scripture_ready"`
	Guests         int         `db:"guests"`
	RecordedBy     null.String `db:"recorded_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type groupScoreRow struct {
	ID             string      `db:"id"`
	ClassroomID    string      `db:"classroom_id"`
	Fecha          time.Time   `db:"fecha"`
	Punctuality    int         `db:"punctuality"`
	Enthusiasm     int         `db:"enthusiasm"`
	GroupOrder     int         `db:"group_order"`
	MemoryVerse    int         `db:"memory_verse"`
	CorrectAnswers int         `db:"correct_answers"`
	RecordedBy     null.String `db:"recorded_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

type scoreRepository struct {
	db *sqlx.DB
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *sqlx.DB) *scoreRepository {
	return &scoreRepository{db: db}
}

func (repo scoreRepository) fromIndividualRow(r individualScoreRow) score.IndividualScore {
	return score.IndividualScore{
		ID:             r.ID,
		StudentID:      r.StudentID,
		Date:           score.DateOf(r.Fecha),
		Attitude:       r.Attitude,
		Punctuality:    r.Punctuality,
		Enthusiasm:     r.Enthusiasm,
		CraftWork:      r.CraftWork,
		MemoryVerse:    r.MemoryVerse,
		ScriptureReady: r.ScriptureReady,
		Guests:         r.Guests,
		RecordedBy:     r.RecordedBy.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (repo scoreRepository) fromGroupRow(r groupScoreRow) score.GroupScore {
	return score.GroupScore{
		ID:             r.ID,
		ClassroomID:    r.ClassroomID,
		Date:           score.DateOf(r.Fecha),
		Punctuality:    r.Punctuality,
		Enthusiasm:     r.Enthusiasm,
		Order:          r.GroupOrder,
		MemoryVerse:    r.MemoryVerse,
		CorrectAnswers: r.CorrectAnswers,
		RecordedBy:     r.RecordedBy.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// UpsertIndividualScore inserts or, when the (student, date) row already
// exists, overwrites its criteria. The existing id and created_at are kept.
func (repo scoreRepository) UpsertIndividualScore(ctx context.Context, s score.IndividualScore) (score.IndividualScore, error) {
	s.ID = uuid.New().String()

	q, args, err := psql.Insert(individualTable).
		Columns(individualColumns...).
		Values(
			s.ID, s.StudentID, s.Date, s.Attitude, s.Punctuality, s.Enthusiasm,
			s.CraftWork, s.MemoryVerse, s.ScriptureReady, s.Guests,
			null.NewString(s.RecordedBy, s.RecordedBy != ""),
			s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
		).
		Suffix(`ON CONFLICT (alumno_id, fecha) DO UPDATE SET
			attitude = EXCLUDED.attitude,
			punctuality = EXCLUDED.punctuality,
			enthusiasm = EXCLUDED.enthusiasm,
			craft_work = EXCLUDED.craft_work,
			memory_verse = EXCLUDED.memory_verse,
			scripture_ready = EXCLUDED.scripture_ready,
			guests = EXCLUDED.guests,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(individualColumns, ", ")).
		ToSql()
	if err != nil {
		return score.IndividualScore{}, errors.Wrap(err, "upserting individual score")
	}
	var r individualScoreRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return score.IndividualScore{}, errors.Wrap(err, "upserting individual score")
	}
	return repo.fromIndividualRow(r), nil
}

// UpsertGroupScore: same contract as UpsertIndividualScore, keyed by (classroom, date).
func (repo scoreRepository) UpsertGroupScore(ctx context.Context, s score.GroupScore) (score.GroupScore, error) {
	s.ID = uuid.New().String()

	q, args, err := psql.Insert(groupTable).
		Columns(groupColumns...).
		Values(
			s.ID, s.ClassroomID, s.Date, s.Punctuality, s.Enthusiasm, s.Order,
			s.MemoryVerse, s.CorrectAnswers,
			null.NewString(s.RecordedBy, s.RecordedBy != ""),
			s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
		).
		Suffix(`ON CONFLICT (classroom_id, fecha) DO UPDATE SET
			punctuality = EXCLUDED.punctuality,
			enthusiasm = EXCLUDED.enthusiasm,
			group_order = EXCLUDED.group_order,
			memory_verse = EXCLUDED.memory_verse,
			correct_answers = EXCLUDED.correct_answers,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(groupColumns, ", ")).
		ToSql()
	if err != nil {
		return score.GroupScore{}, errors.Wrap(err, "upserting group score")
	}
	var r groupScoreRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return score.GroupScore{}, errors.Wrap(err, "upserting group score")
	}
	return repo.fromGroupRow(r), nil
}

func (repo scoreRepository) QueryIndividualScores(ctx context.Context, filter score.QueryFilter) ([]score.IndividualScore, error) {
	b := psql.Select(individualColumns...).From(individualTable)
	if !filter.From.IsZero() {
		b = b.Where(sq.GtOrEq{"fecha": filter.From})
	}
	if !filter.To.IsZero() {
		b = b.Where(sq.LtOrEq{"fecha": filter.To})
	}
	if filter.StudentID != "" {
		b = b.Where(sq.Eq{"alumno_id": filter.StudentID})
	}
	b = b.OrderBy("fecha ASC", "alumno_id ASC")

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying individual scores")
	}
	var rows []individualScoreRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying individual scores")
	}

	scores := make([]score.IndividualScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, repo.fromIndividualRow(r))
	}
	return scores, nil
}

func (repo scoreRepository) QueryGroupScores(ctx context.Context, filter score.QueryFilter) ([]score.GroupScore, error) {
	b := psql.Select(groupColumns...).From(groupTable)
	if !filter.From.IsZero() {
		b = b.Where(sq.GtOrEq{"fecha": filter.From})
	}
	if !filter.To.IsZero() {
		b = b.Where(sq.LtOrEq{"fecha": filter.To})
	}
	if filter.ClassroomID != "" {
		b = b.Where(sq.Eq{"classroom_id": filter.ClassroomID})
	}
	b = b.OrderBy("fecha ASC", "classroom_id ASC")

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying group scores")
	}
	var rows []groupScoreRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying group scores")
	}

	scores := make([]score.GroupScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, repo.fromGroupRow(r))
	}
	return scores, nil
}

func (repo scoreRepository) QueryEvaluations(ctx context.Context, date time.Time) ([]score.Evaluation, error) {
	q, args, err := psql.Select("alumno_id", "fecha").
		From(individualTable).
		Where(sq.Eq{"fecha": score.DateOf(date)}).
		OrderBy("alumno_id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}

	var rows []struct {
		StudentID string    `db:"alumno_id"`
		Fecha     time.Time `db:"fecha"`
	}
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}

	evals := make([]score.Evaluation, 0, len(rows))
	for _, r := range rows {
		evals = append(evals, score.Evaluation{StudentID: r.StudentID, Date: score.DateOf(r.Fecha)})
	}
	return evals, nil
}

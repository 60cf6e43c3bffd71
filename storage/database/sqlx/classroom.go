package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
)

const classroomTable = "classrooms"

var classroomColumns = []string{
	"id", "name", "age_min", "age_max", "color", "is_active", "created_at", "updated_at",
}

type classroomRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	AgeMin    int       `db:"age_min"`
	AgeMax    int       `db:"age_max"`
	Color     string    `db:"color"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *sqlx.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

func (repo classroomRepository) fromRow(r classroomRow) classroom.Classroom {
	active := r.IsActive
	return classroom.Classroom{
		ID:        r.ID,
		Name:      r.Name,
		AgeMin:    r.AgeMin,
		AgeMax:    r.AgeMax,
		Color:     r.Color,
		IsActive:  &active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to classroom.ErrNotFound
func (repo classroomRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return classroom.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo classroomRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	q, args, err := psql.Select("COUNT(*)").From(classroomTable).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return errors.Wrap(err, "checking classroom name")
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, q, args...); err != nil {
		return errors.Wrap(err, "checking classroom name")
	}
	if cnt > 0 {
		return classroom.ErrNameExists
	}
	return nil
}

func (repo classroomRepository) CreateClassroom(ctx context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	room.ID = uuid.New().String()
	active := room.IsActive == nil || *room.IsActive

	q, args, err := psql.Insert(classroomTable).
		Columns(classroomColumns...).
		Values(room.ID, room.Name, room.AgeMin, room.AgeMax, room.Color, active,
			room.CreatedAt.UTC(), room.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return room, nil
}

func (repo classroomRepository) QueryClassrooms(ctx context.Context, ordering []core.DBOrdering) ([]classroom.Classroom, error) {
	b := psql.Select(classroomColumns...).From(classroomTable)
	if len(ordering) == 0 {
		b = b.OrderBy("age_min ASC")
	}
	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	var rows []classroomRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}

	rooms := make([]classroom.Classroom, 0, len(rows))
	for _, r := range rows {
		rooms = append(rooms, repo.fromRow(r))
	}
	return rooms, nil
}

func (repo classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Classroom{}, classroom.ErrNotFound
	}

	q, args, err := psql.Select(classroomColumns...).From(classroomTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "finding classroom by ID")
	}
	var r classroomRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return classroom.Classroom{}, repo.trapNoRowsErr(err, "finding classroom by ID")
	}
	return repo.fromRow(r), nil
}

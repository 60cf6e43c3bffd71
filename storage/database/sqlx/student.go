package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/student"
)

const studentTable = "alumnos"

var studentColumns = []string{
	"id", "name", "surname", "age", "gender", "guardian_name", "guardian_phone",
	"classroom_id", "forced_classroom_id", "is_active", "created_at", "updated_at",
}

type studentRow struct {
	ID                string      `db:"id"`
	Name              string      `db:"name"`
	Surname           string      `db:"surname"`
	Age               int         `db:"age"`
	Gender            string      `db:"gender"`
	GuardianName      string      `db:"guardian_name"`
	GuardianPhone     string      `db:"guardian_phone"`
	ClassroomID       string      `db:"classroom_id"`
	ForcedClassroomID null.String `db:"forced_classroom_id"`
	IsActive          bool        `db:"is_active"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) fromRow(r studentRow) student.Student {
	active := r.IsActive
	return student.Student{
		ID:                r.ID,
		Name:              r.Name,
		Surname:           r.Surname,
		Age:               r.Age,
		Gender:            r.Gender,
		GuardianName:      r.GuardianName,
		GuardianPhone:     r.GuardianPhone,
		ClassroomID:       r.ClassroomID,
		ForcedClassroomID: r.ForcedClassroomID.String,
		IsActive:          &active,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = uuid.New().String()
	active := std.IsActive == nil || *std.IsActive

	q, args, err := psql.Insert(studentTable).
		Columns(studentColumns...).
		Values(
			std.ID, std.Name, std.Surname, std.Age, std.Gender,
			std.GuardianName, std.GuardianPhone, std.ClassroomID,
			null.NewString(std.ForcedClassroomID, std.ForcedClassroomID != ""),
			active, std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	b := psql.Select(studentColumns...).From(studentTable)

	if filter != nil {
		// students with Name, Surname or GuardianName matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"name": val},
				sq.ILike{"surname": val},
				sq.ILike{"guardian_name": val},
			})
		}
		// the forced override wins over the age-derived default
		if filter.ClassroomID != "" {
			b = b.Where(sq.Expr("COALESCE(forced_classroom_id, classroom_id) = ?", filter.ClassroomID))
		}
		if filter.Gender != "" {
			b = b.Where(sq.Eq{"gender": filter.Gender})
		}
		if filter.IsActive != nil {
			b = b.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.RegisteredFrom.IsZero() {
			b = b.Where(sq.GtOrEq{"created_at": filter.RegisteredFrom.UTC()})
		}
		if !filter.RegisteredTo.IsZero() {
			b = b.Where(sq.LtOrEq{"created_at": filter.RegisteredTo.UTC()})
		}
	}

	if len(ordering) == 0 {
		b = b.OrderBy("surname ASC", "name ASC")
	}
	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.fromRow(r))
	}
	return students, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}

	q, args, err := psql.Select(studentColumns...).From(studentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	var r studentRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return repo.fromRow(r), nil
}

// UpdateStudent only saves set fields; zero fields keep their stored value.
func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, isActive *bool) (student.Student, error) {
	b := psql.Update(studentTable).Where(sq.Eq{"id": std.ID})
	if std.Name != "" {
		b = b.Set("name", std.Name)
	}
	if std.Surname != "" {
		b = b.Set("surname", std.Surname)
	}
	if std.Age != 0 {
		b = b.Set("age", std.Age)
	}
	if std.GuardianName != "" {
		b = b.Set("guardian_name", std.GuardianName)
	}
	if std.GuardianPhone != "" {
		b = b.Set("guardian_phone", std.GuardianPhone)
	}
	if std.ClassroomID != "" {
		b = b.Set("classroom_id", std.ClassroomID)
	}
	if isActive != nil {
		b = b.Set("is_active", *isActive)
	}
	if !std.UpdatedAt.IsZero() {
		b = b.Set("updated_at", std.UpdatedAt.UTC())
	}

	q, args, err := b.Suffix("RETURNING " + strings.Join(studentColumns, ", ")).ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	var r studentRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "updating student")
	}
	return repo.fromRow(r), nil
}

func (repo studentRepository) SetForcedClassroom(ctx context.Context, id, classroomID string) (student.Student, error) {
	q, args, err := psql.Update(studentTable).
		Set("forced_classroom_id", null.NewString(classroomID, classroomID != "")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "setting forced classroom")
	}
	var r studentRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "setting forced classroom")
	}
	return repo.fromRow(r), nil
}

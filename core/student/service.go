package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
)

var (
	// errors
	ErrNotFound    = errors.New("student not found")
	ErrNoClassroom = errors.New("no classroom covers this age")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Surname
		// or GuardianName. QueryFilter.ClassroomID matches the EFFECTIVE classroom
		// (the forced override when set, the default otherwise).
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student, isActive *bool) (Student, error)
		// SetForcedClassroom sets the override; empty id clears it.
		SetForcedClassroom(ctx context.Context, id, classroomID string) (Student, error)
	}

	Service struct {
		repo  Repository
		rooms *classroom.Service
	}
)

func NewService(repo Repository, roomSvc *classroom.Service) *Service {
	return &Service{repo: repo, rooms: roomSvc}
}

// Register creates a Student, deriving the default classroom from the age.
func (svc *Service) Register(ctx context.Context, ns NewStudent) (Student, error) {
	room, err := svc.rooms.ForAge(ctx, ns.Age)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return Student{}, core.NewValidationError(ErrNoClassroom,
				core.FieldError{Field: "age", Error: ErrNoClassroom.Error()})
		}
		return Student{}, errors.Wrap(err, "resolving classroom for age")
	}

	now := time.Now().UTC()
	active := true
	std := Student{
		Name:          ns.Name,
		Surname:       ns.Surname,
		Age:           ns.Age,
		Gender:        ns.Gender,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		ClassroomID:   room.ID,
		IsActive:      &active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// Update modifies a student. A changed age recomputes the default classroom;
// the forced override, when set, keeps precedence regardless.
func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	std := Student{
		ID:            orig.ID,
		Name:          us.Name,
		Surname:       us.Surname,
		Age:           us.Age,
		GuardianName:  us.GuardianName,
		GuardianPhone: us.GuardianPhone,
		UpdatedAt:     time.Now().UTC(),
	}

	if us.Age != orig.Age {
		room, err := svc.rooms.ForAge(ctx, us.Age)
		if err != nil {
			if errors.Cause(err) == classroom.ErrNotFound {
				return Student{}, core.NewValidationError(ErrNoClassroom,
					core.FieldError{Field: "age", Error: ErrNoClassroom.Error()})
			}
			return Student{}, errors.Wrap(err, "resolving classroom for age")
		}
		std.ClassroomID = room.ID
	}

	return svc.repo.UpdateStudent(ctx, std, us.IsActive)
}

// Reassign sets the forced classroom override; an empty id clears it, reverting
// the student to the age-derived default.
func (svc *Service) Reassign(ctx context.Context, id string, r Reassignment) (Student, error) {
	if r.ForcedClassroomID != "" {
		if _, err := svc.rooms.GetByID(ctx, r.ForcedClassroomID); err != nil {
			if errors.Cause(err) == classroom.ErrNotFound {
				return Student{}, core.NewValidationError(err,
					core.FieldError{Field: "forced_classroom_id", Error: err.Error()})
			}
			return Student{}, errors.Wrap(err, "checking forced classroom")
		}
	}
	return svc.repo.SetForcedClassroom(ctx, id, r.ForcedClassroomID)
}

// Deactivate flags a student inactive; score history is kept.
func (svc *Service) Deactivate(ctx context.Context, id string) (Student, error) {
	inactive := false
	return svc.repo.UpdateStudent(ctx, Student{ID: id, UpdatedAt: time.Now().UTC()}, &inactive)
}

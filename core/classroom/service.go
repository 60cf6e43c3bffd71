package classroom

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
)

var (
	// errors
	ErrNotFound   = errors.New("classroom not found")
	ErrNameExists = errors.New("a classroom with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string) error
		CreateClassroom(ctx context.Context, room Classroom) (Classroom, error)
		QueryClassrooms(ctx context.Context, ordering []core.DBOrdering) ([]Classroom, error)
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a classroom; used by the seeding CLI only.
// Seeding is idempotent: an existing name is not an error, the existing row wins.
func (svc *Service) Create(ctx context.Context, nc NewClassroom) (Classroom, error) {
	if err := svc.repo.CheckNameUniqueness(ctx, nc.Name); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return Classroom{}, err
		}
		return Classroom{}, errors.Wrap(err, "checking classroom name")
	}

	now := time.Now().UTC()
	active := true
	room := Classroom{
		Name:      nc.Name,
		AgeMin:    nc.AgeMin,
		AgeMax:    nc.AgeMax,
		Color:     nc.Color,
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClassroom(ctx, room)
}

func (svc *Service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Classroom, error) {
	return svc.repo.QueryClassrooms(ctx, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroomByID(ctx, id)
}

// ForAge resolves the default classroom for a child of the given age.
func (svc *Service) ForAge(ctx context.Context, age int) (Classroom, error) {
	rooms, err := svc.repo.QueryClassrooms(ctx, nil)
	if err != nil {
		return Classroom{}, errors.Wrap(err, "querying classrooms")
	}
	room, ok := ForAge(rooms, age)
	if !ok {
		return Classroom{}, ErrNotFound
	}
	return room, nil
}

package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
)

type classroomRepository struct {
	db *classroomTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) *classroomRepository {
	return &classroomRepository{db: db.classroom}
}

func (repo *classroomRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, room := range repo.db.table {
		if room.Name == name {
			return classroom.ErrNameExists
		}
	}
	return nil
}

func (repo *classroomRepository) CreateClassroom(ctx context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	room.ID = uuid.New().String()
	repo.db.table[room.ID] = &room
	return room, nil
}

func (repo *classroomRepository) QueryClassrooms(ctx context.Context, ordering []core.DBOrdering) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rooms := make([]classroom.Classroom, 0, len(repo.db.table))
	for _, room := range repo.db.table {
		rooms = append(rooms, *room)
	}

	field, asc := "age_min", true
	if len(ordering) > 0 {
		field, asc = ordering[0].Field, ordering[0].Ascending
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		var less bool
		switch field {
		case "name":
			less = rooms[i].Name < rooms[j].Name
		default:
			less = rooms[i].AgeMin < rooms[j].AgeMin
		}
		if !asc {
			return !less
		}
		return less
	})
	return rooms, nil
}

func (repo *classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if room, ok := repo.db.table[id]; ok {
		return *room, nil
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

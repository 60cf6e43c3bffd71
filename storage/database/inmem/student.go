package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std.ID = uuid.New().String()
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []student.Student
	for _, std := range repo.db.table {
		if filter != nil && !matchStudent(*std, filter) {
			continue
		}
		students = append(students, *std)
	}
	sortStudents(students, ordering)
	return students, nil
}

func matchStudent(std student.Student, filter *student.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(std.Name), kw) &&
			!strings.Contains(strings.ToLower(std.Surname), kw) &&
			!strings.Contains(strings.ToLower(std.GuardianName), kw) {
			return false
		}
	}
	// the forced override wins over the age-derived default
	if filter.ClassroomID != "" && std.EffectiveClassroomID() != filter.ClassroomID {
		return false
	}
	if filter.Gender != "" && std.Gender != filter.Gender {
		return false
	}
	if filter.IsActive != nil {
		active := std.IsActive != nil && *std.IsActive
		if active != *filter.IsActive {
			return false
		}
	}
	if !filter.RegisteredFrom.IsZero() && std.CreatedAt.Before(filter.RegisteredFrom) {
		return false
	}
	if !filter.RegisteredTo.IsZero() && std.CreatedAt.After(filter.RegisteredTo) {
		return false
	}
	return true
}

func sortStudents(students []student.Student, ordering []core.DBOrdering) {
	field, asc := "surname", true
	if len(ordering) > 0 {
		field, asc = ordering[0].Field, ordering[0].Ascending
	}
	sort.SliceStable(students, func(i, j int) bool {
		var less bool
		switch field {
		case "name":
			less = students[i].Name < students[j].Name
		case "age":
			less = students[i].Age < students[j].Age
		case "created_at":
			less = students[i].CreatedAt.Before(students[j].CreatedAt)
		default:
			if students[i].Surname == students[j].Surname {
				less = students[i].Name < students[j].Name
			} else {
				less = students[i].Surname < students[j].Surname
			}
		}
		if !asc {
			return !less
		}
		return less
	})
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student, isActive *bool) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if std.Name != "" {
		orig.Name = std.Name
	}
	if std.Surname != "" {
		orig.Surname = std.Surname
	}
	if std.Age != 0 {
		orig.Age = std.Age
	}
	if std.GuardianName != "" {
		orig.GuardianName = std.GuardianName
	}
	if std.GuardianPhone != "" {
		orig.GuardianPhone = std.GuardianPhone
	}
	if std.ClassroomID != "" {
		orig.ClassroomID = std.ClassroomID
	}
	if isActive != nil {
		active := *isActive
		orig.IsActive = &active
	}
	if !std.UpdatedAt.IsZero() {
		orig.UpdatedAt = std.UpdatedAt
	}

	repo.db.table[std.ID] = orig
	return *orig, nil
}

func (repo *studentRepository) SetForcedClassroom(ctx context.Context, id, classroomID string) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	std.ForcedClassroomID = classroomID
	std.UpdatedAt = time.Now().UTC()

	repo.db.table[id] = std
	return *std, nil
}

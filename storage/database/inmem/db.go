package inmemdb

import (
	"sync"

	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/score"
	"github.com/jvaldes/premios/core/student"
	"github.com/jvaldes/premios/core/user"
)

type (
	DB struct {
		user       *userTable
		classroom  *classroomTable
		student    *studentTable
		individual *individualScoreTable
		group      *groupScoreTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classroomTable struct {
		sync.RWMutex
		table map[string]*classroom.Classroom
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	// keyed by studentID + "|" + fecha so re-submissions overwrite
	individualScoreTable struct {
		sync.RWMutex
		table map[string]*score.IndividualScore
	}

	// keyed by classroomID + "|" + fecha
	groupScoreTable struct {
		sync.RWMutex
		table map[string]*score.GroupScore
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		classroom:  &classroomTable{table: make(map[string]*classroom.Classroom)},
		student:    &studentTable{table: make(map[string]*student.Student)},
		individual: &individualScoreTable{table: make(map[string]*score.IndividualScore)},
		group:      &groupScoreTable{table: make(map[string]*score.GroupScore)},
	}
}

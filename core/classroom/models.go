package classroom

import (
	"time"
)

// Classroom is one of the four fixed age-banded groups students are assigned to.
type Classroom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AgeMin    int       `json:"age_min"`
	AgeMax    int       `json:"age_max"`
	Color     string    `json:"color"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Includes reports whether `age` falls within the classroom's age band.
func (c Classroom) Includes(age int) bool {
	return c.AgeMin <= age && age <= c.AgeMax
}

// NewClassroom contains information needed to create a Classroom.
// Classrooms are created once at setup via the admin CLI; there is no HTTP
// endpoint for it.
type NewClassroom struct {
	Name   string `json:"name" validate:"required"`
	AgeMin int    `json:"age_min" validate:"min=0"`
	AgeMax int    `json:"age_max" validate:"required,gtefield=AgeMin"`
	Color  string `json:"color" validate:"required"`
}

// DefaultClassrooms returns the program's four fixed age bands.
func DefaultClassrooms() []NewClassroom {
	return []NewClassroom{
		{Name: "Abejitas", AgeMin: 4, AgeMax: 6, Color: "yellow"},
		{Name: "Estrellas", AgeMin: 7, AgeMax: 8, Color: "blue"},
		{Name: "Leones", AgeMin: 9, AgeMax: 10, Color: "green"},
		{Name: "Aguilas", AgeMin: 11, AgeMax: 12, Color: "red"},
	}
}

// ForAge returns the classroom whose age band includes `age`.
// Inactive classrooms are skipped.
func ForAge(classrooms []Classroom, age int) (Classroom, bool) {
	for _, c := range classrooms {
		if c.IsActive != nil && !*c.IsActive {
			continue
		}
		if c.Includes(age) {
			return c, true
		}
	}
	return Classroom{}, false
}

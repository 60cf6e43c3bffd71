package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jvaldes/premios/core"
)

// Genders
const (
	GenderFemale = "F"
	GenderMale   = "M"
)

// Student is a registered child.
// The age band determines the default classroom at registration; an
// administrator may override it with a forced classroom.
type Student struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Surname           string    `json:"surname"`
	Age               int       `json:"age"`
	Gender            string    `json:"gender"`
	GuardianName      string    `json:"guardian_name"`
	GuardianPhone     string    `json:"guardian_phone"`
	ClassroomID       string    `json:"classroom_id"`
	ForcedClassroomID string    `json:"forced_classroom_id,omitempty"` // empty: no override
	IsActive          *bool     `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"` // UTC; registration time
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// EffectiveClassroomID resolves the classroom the student actually belongs to:
// the forced override when present, the age-derived default otherwise.
func (s Student) EffectiveClassroomID() string {
	if s.ForcedClassroomID != "" {
		return s.ForcedClassroomID
	}
	return s.ClassroomID
}

func (s Student) FullName() string {
	return s.Name + " " + s.Surname
}

// NewStudent contains information needed to register a Student.
// The classroom is not provided: it is derived from the age.
type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	Surname       string `json:"surname" validate:"required"`
	Age           int    `json:"age" validate:"required,min=3,max=13"`
	Gender        string `json:"gender" validate:"required,oneof=F M"`
	GuardianName  string `json:"guardian_name" validate:"required"`
	GuardianPhone string `json:"guardian_phone" validate:"required,phone"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Surname = core.CleanString(ns.Surname)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	if ns.Gender != "" {
		ns.Gender = map[string]string{"f": GenderFemale, "m": GenderMale}[ns.Gender]
	}
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify a Student.
// A zero field keeps the original value.
type UpdateStudent struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Age           int    `json:"age" validate:"omitempty,min=3,max=13"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,phone"`
	IsActive      *bool  `json:"is_active"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if surname := core.CleanString(us.Surname); surname != "" {
		us.Surname = surname
	} else {
		us.Surname = orig.Surname
	}
	if us.Age == 0 {
		us.Age = orig.Age
	}
	if gname := core.CleanString(us.GuardianName); gname != "" {
		us.GuardianName = gname
	} else {
		us.GuardianName = orig.GuardianName
	}
	if gphone := core.CleanString(us.GuardianPhone); gphone != "" {
		us.GuardianPhone = gphone
	} else {
		us.GuardianPhone = orig.GuardianPhone
	}
	return validate.Struct(us)
}

// Reassignment sets or clears the forced classroom override.
type Reassignment struct {
	ForcedClassroomID string `json:"forced_classroom_id" validate:"omitempty,uuid4"`
}

func (r *Reassignment) Validate(validate *validator.Validate) error {
	r.ForcedClassroomID = core.CleanString(r.ForcedClassroomID, true /* lower */)
	return validate.Struct(r)
}

type QueryFilter struct {
	Search         string    `query:"search"` // matches name, surname or guardian name
	ClassroomID    string    `query:"classroom_id"`
	Gender         string    `query:"gender"`
	IsActive       *bool     `query:"is_active"`
	RegisteredFrom time.Time `query:"registered_from"`
	RegisteredTo   time.Time `query:"registered_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassroomID == "" && qf.Gender == "" && qf.IsActive == nil &&
		qf.RegisteredFrom.IsZero() && qf.RegisteredTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassroomID = core.CleanString(qf.ClassroomID, true /* lower */)
	qf.Gender = core.CleanString(qf.Gender, true /* lower */)
	if qf.Gender != "" {
		qf.Gender = map[string]string{"f": GenderFemale, "m": GenderMale}[qf.Gender]
	}
}

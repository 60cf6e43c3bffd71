package score

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jvaldes/premios/core"
)

// Individual criteria caps. A perfect day is worth MaxDayTotal points.
const (
	MaxAttitude       = 10
	MaxPunctuality    = 10
	MaxEnthusiasm     = 10
	MaxCraftWork      = 10
	MaxMemoryVerse    = 10
	MaxScriptureReady = 10

	MaxDayTotal = MaxAttitude + MaxPunctuality + MaxEnthusiasm + MaxCraftWork + MaxMemoryVerse + MaxScriptureReady
)

// Group criteria caps.
const (
	MaxGroupPunctuality = 10
	MaxGroupEnthusiasm  = 10
	MaxGroupOrder       = 10
	MaxGroupMemoryVerse = 10
	MaxCorrectAnswers   = 20

	MaxGroupDayTotal = MaxGroupPunctuality + MaxGroupEnthusiasm + MaxGroupOrder + MaxGroupMemoryVerse + MaxCorrectAnswers
)

// DateLayout is the wire format of score dates (the `fecha` param).
const DateLayout = "2006-01-02"

// IndividualScore is a student's evaluation for one day.
// At most one row exists per (student, date); re-submissions update it.
type IndividualScore struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	Date           time.Time `json:"fecha"` // date only, UTC midnight
	Attitude       int       `json:"attitude"`
	Punctuality    int       `json:"punctuality"`
	Enthusiasm     int       `json:"enthusiasm"`
	CraftWork      int       `json:"craft_work"`
	MemoryVerse    int       `json:"memory_verse"`
	ScriptureReady int       `json:"scripture_ready"`
	Guests         int       `json:"guests"` // uncapped
	RecordedBy     string    `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// DayTotal sums the six capped criteria. Guests do not count towards points.
func (s IndividualScore) DayTotal() int {
	return s.Attitude + s.Punctuality + s.Enthusiasm + s.CraftWork + s.MemoryVerse + s.ScriptureReady
}

// GroupScore is a classroom's evaluation for one day.
// At most one row exists per (classroom, date); re-submissions update it.
type GroupScore struct {
	ID             string    `json:"id"`
	ClassroomID    string    `json:"classroom_id"`
	Date           time.Time `json:"fecha"` // date only, UTC midnight
	Punctuality    int       `json:"punctuality"`
	Enthusiasm     int       `json:"enthusiasm"`
	Order          int       `json:"order"`
	MemoryVerse    int       `json:"memory_verse"`
	CorrectAnswers int       `json:"correct_answers"`
	RecordedBy     string    `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// DayTotal sums the five capped criteria.
func (s GroupScore) DayTotal() int {
	return s.Punctuality + s.Enthusiasm + s.Order + s.MemoryVerse + s.CorrectAnswers
}

// NewIndividualScore contains a teacher's submission for one student and one day.
type NewIndividualScore struct {
	StudentID      string `json:"student_id" validate:"required,uuid4"`
	Fecha          string `json:"fecha" validate:"required,datetime=2006-01-02"`
	Attitude       int    `json:"attitude" validate:"min=0,max=10"`
	Punctuality    int    `json:"punctuality" validate:"min=0,max=10"`
	Enthusiasm     int    `json:"enthusiasm" validate:"min=0,max=10"`
	CraftWork      int    `json:"craft_work" validate:"min=0,max=10"`
	MemoryVerse    int    `json:"memory_verse" validate:"min=0,max=10"`
	ScriptureReady int    `json:"scripture_ready" validate:"min=0,max=10"`
	Guests         int    `json:"guests" validate:"min=0"`

	date time.Time
}

func (ns *NewIndividualScore) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID, true /* lower */)
	ns.Fecha = core.CleanString(ns.Fecha)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	date, err := time.ParseInLocation(DateLayout, ns.Fecha, time.UTC)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "fecha", Error: "invalid date"})
	}
	ns.date = date
	return nil
}

// Date returns the parsed Fecha; only valid after Validate.
func (ns NewIndividualScore) Date() time.Time { return ns.date }

// NewGroupScore contains a judge's submission for one classroom and one day.
type NewGroupScore struct {
	ClassroomID    string `json:"classroom_id" validate:"required,uuid4"`
	Fecha          string `json:"fecha" validate:"required,datetime=2006-01-02"`
	Punctuality    int    `json:"punctuality" validate:"min=0,max=10"`
	Enthusiasm     int    `json:"enthusiasm" validate:"min=0,max=10"`
	Order          int    `json:"order" validate:"min=0,max=10"`
	MemoryVerse    int    `json:"memory_verse" validate:"min=0,max=10"`
	CorrectAnswers int    `json:"correct_answers" validate:"min=0,max=20"`

	date time.Time
}

func (ns *NewGroupScore) Validate(validate *validator.Validate) error {
	ns.ClassroomID = core.CleanString(ns.ClassroomID, true /* lower */)
	ns.Fecha = core.CleanString(ns.Fecha)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	date, err := time.ParseInLocation(DateLayout, ns.Fecha, time.UTC)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "fecha", Error: "invalid date"})
	}
	ns.date = date
	return nil
}

// Date returns the parsed Fecha; only valid after Validate.
func (ns NewGroupScore) Date() time.Time { return ns.date }

// Evaluation is a (student, date) pair: proof a student was scored that day.
type Evaluation struct {
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"fecha"`
}

// QueryFilter bounds score queries to a window and, optionally, to one entity.
type QueryFilter struct {
	From        time.Time
	To          time.Time
	StudentID   string
	ClassroomID string
}

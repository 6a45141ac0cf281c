package discipleship

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

// Class statuses
const (
	ClassOpen       = "aberta"
	ClassInProgress = "em_andamento"
	ClassFinished   = "concluida"
	ClassCancelled  = "cancelada"
)

// Enrollment statuses
const (
	EnrollmentActive    = "ativa"
	EnrollmentCompleted = "concluida"
	EnrollmentDropped   = "desistente"
)

const DefaultCapacity = 30

var (
	ClassStatuses      = []string{ClassOpen, ClassInProgress, ClassFinished, ClassCancelled}
	EnrollmentStatuses = []string{EnrollmentActive, EnrollmentCompleted, EnrollmentDropped}
)

type Course struct {
	ID          string    `json:"id" db:"id"`
	ChurchID    string    `json:"-" db:"church_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Hours       int       `json:"hours" db:"hours"`
	TrailOrder  int       `json:"trail_order" db:"trail_order"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CourseListItem struct {
	Course
	Classes   int `json:"classes" db:"classes"`
	Graduates int `json:"graduates" db:"graduates"`
}

type CourseInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	Hours       int    `json:"hours" validate:"min=0"`
	TrailOrder  int    `json:"trail_order" validate:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

func (in *CourseInput) Validate() error {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	in.Category = core.CleanString(in.Category)
	return core.Validate.Struct(in)
}

func (in CourseInput) apply(c *Course) {
	c.Name = in.Name
	c.Description = in.Description
	c.Category = in.Category
	c.Hours = in.Hours
	c.TrailOrder = in.TrailOrder
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

type Class struct {
	ID           string      `json:"id" db:"id"`
	CourseID     string      `json:"course_id" db:"course_id"`
	Name         string      `json:"name" db:"name"`
	InstructorID null.String `json:"instructor_id" db:"instructor_id"`
	StartDate    time.Time   `json:"start_date" db:"start_date"`
	EndDate      null.Time   `json:"end_date" db:"end_date"`
	Schedule     string      `json:"schedule" db:"schedule"`
	Location     string      `json:"location" db:"location"`
	Capacity     int         `json:"capacity" db:"capacity"`
	Status       string      `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type ClassListItem struct {
	Class
	CourseName     string      `json:"course_name" db:"course_name"`
	InstructorName null.String `json:"instructor_name" db:"instructor_name"`
	Enrollments    int         `json:"enrollments" db:"enrollments"`
}

type ClassInput struct {
	CourseID     string `json:"course_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=100"`
	InstructorID string `json:"instructor_id"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Schedule     string `json:"schedule" validate:"omitempty,max=100"`
	Location     string `json:"location" validate:"omitempty,max=200"`
	Capacity     int    `json:"capacity" validate:"min=0"`
	Status       string `json:"status" validate:"omitempty,classstatus"`
}

func (in *ClassInput) Validate() error {
	in.CourseID = core.CleanString(in.CourseID)
	in.Name = core.CleanString(in.Name)
	in.InstructorID = core.CleanString(in.InstructorID)
	in.StartDate = core.CleanString(in.StartDate)
	in.EndDate = core.CleanString(in.EndDate)
	in.Schedule = core.CleanString(in.Schedule)
	in.Location = core.CleanString(in.Location)
	in.Status = core.CleanString(in.Status, true /* lower */)
	if in.Status == "" {
		in.Status = ClassOpen
	}
	if in.Capacity == 0 {
		in.Capacity = DefaultCapacity
	}
	if err := core.Validate.Struct(in); err != nil {
		return err
	}
	if end := core.ParseDateOrZero(in.EndDate); end.Valid && end.Time.Before(core.ParseDateOrZero(in.StartDate).Time) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "a data final deve ser após a inicial"})
	}
	return nil
}

func (in ClassInput) apply(c *Class) {
	c.CourseID = in.CourseID
	c.Name = in.Name
	c.InstructorID = core.NullString(in.InstructorID)
	c.StartDate = core.ParseDateOrZero(in.StartDate).Time
	c.EndDate = core.ParseDateOrZero(in.EndDate)
	c.Schedule = in.Schedule
	c.Location = in.Location
	c.Capacity = in.Capacity
	c.Status = in.Status
}

type Enrollment struct {
	ID                string       `json:"id" db:"id"`
	ClassID           string       `json:"class_id" db:"class_id"`
	PersonID          string       `json:"person_id" db:"person_id"`
	Status            string       `json:"status" db:"status"`
	FinalGrade        null.Float64 `json:"final_grade" db:"final_grade"`
	Attendance        null.Float64 `json:"attendance" db:"attendance"`
	CompletedAt       null.Time    `json:"completed_at" db:"completed_at"`
	CertificateIssued bool         `json:"certificate_issued" db:"certificate_issued"`
	EnrolledAt        time.Time    `json:"enrolled_at" db:"enrolled_at"`
}

type EnrollmentListItem struct {
	Enrollment
	PersonName string `json:"person_name" db:"person_name"`
	Mobile     string `json:"mobile" db:"mobile"`
	Email      string `json:"email" db:"email"`
}

// EnrollmentUpdate changes the fields it sets. Completing an enrollment without a date completes it today.
type EnrollmentUpdate struct {
	Status            string       `json:"status" validate:"omitempty,enrollmentstatus"`
	FinalGrade        null.Float64 `json:"final_grade"`
	Attendance        null.Float64 `json:"attendance"`
	CompletedAt       string       `json:"completed_at" validate:"omitempty,datetime=2006-01-02"`
	CertificateIssued *bool        `json:"certificate_issued"`
}

func (eu *EnrollmentUpdate) Validate() error {
	eu.Status = core.CleanString(eu.Status, true /* lower */)
	eu.CompletedAt = core.CleanString(eu.CompletedAt)
	if err := core.Validate.Struct(eu); err != nil {
		return err
	}
	if eu.FinalGrade.Valid && (eu.FinalGrade.Float64 < 0 || eu.FinalGrade.Float64 > 10) {
		return core.NewValidationError(nil, core.FieldError{Field: "final_grade", Error: "a nota deve estar entre 0 e 10"})
	}
	if eu.Attendance.Valid && (eu.Attendance.Float64 < 0 || eu.Attendance.Float64 > 100) {
		return core.NewValidationError(nil, core.FieldError{Field: "attendance", Error: "a frequência deve estar entre 0 e 100"})
	}
	return nil
}

func (eu EnrollmentUpdate) apply(e *Enrollment) {
	if eu.Status != "" {
		e.Status = eu.Status
	}
	if eu.FinalGrade.Valid {
		e.FinalGrade = eu.FinalGrade
	}
	if eu.Attendance.Valid {
		e.Attendance = eu.Attendance
	}
	if eu.CompletedAt != "" {
		e.CompletedAt = core.ParseDateOrZero(eu.CompletedAt)
	}
	if eu.CertificateIssued != nil {
		e.CertificateIssued = *eu.CertificateIssued
	}
	if e.Status == EnrollmentCompleted && !e.CompletedAt.Valid {
		e.CompletedAt = null.TimeFrom(core.Today(core.NowFunc()))
	}
}

// TrailRow is one course of the trail joined with one of the person's enrollments, if any.
type TrailRow struct {
	Course
	ClassName        null.String  `db:"class_name"`
	EnrollmentStatus null.String  `db:"enrollment_status"`
	FinalGrade       null.Float64 `db:"final_grade"`
	CompletedAt      null.Time    `db:"completed_at"`
}

type TrailStep struct {
	Course           Course       `json:"course"`
	ClassName        null.String  `json:"class_name"`
	EnrollmentStatus null.String  `json:"enrollment_status"`
	FinalGrade       null.Float64 `json:"final_grade"`
	CompletedAt      null.Time    `json:"completed_at"`
}

type Trail struct {
	Steps     []TrailStep `json:"steps"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
}

type Stats struct {
	Courses        int `json:"courses" db:"courses"`
	OpenClasses    int `json:"open_classes" db:"open_classes"`
	ActiveStudents int `json:"active_students" db:"active_students"`
	Graduates      int `json:"graduates" db:"graduates"`
}

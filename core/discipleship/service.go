package discipleship

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound           = core.NewNotFoundError("course")
	ErrClassNotFound      = core.NewNotFoundError("class")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrPersonNotFound     = core.NewNotFoundError("person")
	ErrAlreadyEnrolled    = errors.New("person already enrolled in this class")
	ErrClassFull          = errors.New("class is full")
	ErrClassClosed        = errors.New("class does not accept enrollments")
)

// enrollment states by precedence on the trail
var trailRank = map[string]int{EnrollmentDropped: 1, EnrollmentActive: 2, EnrollmentCompleted: 3}

type (
	Repository interface {
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		QueryCourses(ctx context.Context, db core.DBExecutor, churchID string) ([]CourseListItem, error)
		GetCourse(ctx context.Context, db core.DBExecutor, churchID, id string) (CourseListItem, error)
		CreateCourse(ctx context.Context, db core.DBExecutor, c Course) (Course, error)
		UpdateCourse(ctx context.Context, db core.DBExecutor, c Course) (Course, error)

		QueryClasses(ctx context.Context, db core.DBExecutor, churchID, courseID, status string) ([]ClassListItem, error)
		GetClass(ctx context.Context, db core.DBExecutor, churchID, id string) (ClassListItem, error)
		CreateClass(ctx context.Context, db core.DBExecutor, c Class) (Class, error)
		UpdateClass(ctx context.Context, db core.DBExecutor, c Class) (Class, error)

		QueryEnrollments(ctx context.Context, db core.DBExecutor, classID string) ([]EnrollmentListItem, error)
		GetEnrollment(ctx context.Context, db core.DBExecutor, churchID, id string) (Enrollment, error)
		IsEnrolled(ctx context.Context, db core.DBExecutor, classID, personID string) (bool, error)
		CreateEnrollment(ctx context.Context, db core.DBExecutor, e Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, db core.DBExecutor, e Enrollment) (Enrollment, error)

		// QueryTrail returns the church's active courses in trail order, one row per enrollment of the person.
		QueryTrail(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]TrailRow, error)
		Stats(ctx context.Context, db core.DBExecutor, churchID string) (Stats, error)
	}

	Service struct {
		db    core.DB
		repo  Repository
		audit core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, audit: audit}
}

func (svc *Service) checkPerson(ctx context.Context, actor core.Actor, field, id string) error {
	ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return errors.Wrap(err, "checking person")
	}
	if !ok {
		return core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: field, Error: "pessoa não encontrada"})
	}
	return nil
}

// Courses

func (svc *Service) QueryCourses(ctx context.Context, actor core.Actor) ([]CourseListItem, error) {
	return svc.repo.QueryCourses(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) GetCourse(ctx context.Context, actor core.Actor, id string) (CourseListItem, error) {
	return svc.repo.GetCourse(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) CreateCourse(ctx context.Context, actor core.Actor, in CourseInput) (Course, error) {
	if err := in.Validate(); err != nil {
		return Course{}, err
	}
	c := Course{ChurchID: actor.ChurchID, IsActive: true, CreatedAt: core.NowFunc()}
	in.apply(&c)
	c, err := svc.repo.CreateCourse(ctx, svc.db, c)
	if err != nil {
		return Course{}, err
	}
	svc.audit.LogAction(ctx, actor, "curso.criar", "Curso criado: "+c.Name)
	return c, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, actor core.Actor, id string, in CourseInput) (Course, error) {
	if err := in.Validate(); err != nil {
		return Course{}, err
	}
	item, err := svc.repo.GetCourse(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Course{}, err
	}
	c := item.Course
	in.apply(&c)
	return svc.repo.UpdateCourse(ctx, svc.db, c)
}

func (svc *Service) DeleteCourse(ctx context.Context, actor core.Actor, id string) error {
	item, err := svc.repo.GetCourse(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	c := item.Course
	c.IsActive = false
	_, err = svc.repo.UpdateCourse(ctx, svc.db, c)
	return err
}

// Classes

func (svc *Service) QueryClasses(ctx context.Context, actor core.Actor, courseID, status string) ([]ClassListItem, error) {
	return svc.repo.QueryClasses(ctx, svc.db, actor.ChurchID, core.CleanString(courseID), core.CleanString(status, true /* lower */))
}

func (svc *Service) GetClass(ctx context.Context, actor core.Actor, id string) (ClassListItem, error) {
	return svc.repo.GetClass(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) checkClassInput(ctx context.Context, actor core.Actor, in ClassInput) error {
	if _, err := svc.repo.GetCourse(ctx, svc.db, actor.ChurchID, in.CourseID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "course_id", Error: "curso não encontrado"})
		}
		return err
	}
	if in.InstructorID != "" {
		return svc.checkPerson(ctx, actor, "instructor_id", in.InstructorID)
	}
	return nil
}

func (svc *Service) CreateClass(ctx context.Context, actor core.Actor, in ClassInput) (Class, error) {
	if err := in.Validate(); err != nil {
		return Class{}, err
	}
	if err := svc.checkClassInput(ctx, actor, in); err != nil {
		return Class{}, err
	}
	c := Class{CreatedAt: core.NowFunc()}
	in.apply(&c)
	c, err := svc.repo.CreateClass(ctx, svc.db, c)
	if err != nil {
		return Class{}, err
	}
	svc.audit.LogAction(ctx, actor, "turma.criar", "Turma criada: "+c.Name)
	return c, nil
}

func (svc *Service) UpdateClass(ctx context.Context, actor core.Actor, id string, in ClassInput) (Class, error) {
	if err := in.Validate(); err != nil {
		return Class{}, err
	}
	item, err := svc.repo.GetClass(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Class{}, err
	}
	if err = svc.checkClassInput(ctx, actor, in); err != nil {
		return Class{}, err
	}
	c := item.Class
	in.apply(&c)
	return svc.repo.UpdateClass(ctx, svc.db, c)
}

// Enrollments

func (svc *Service) Enrollments(ctx context.Context, actor core.Actor, classID string) ([]EnrollmentListItem, error) {
	if _, err := svc.repo.GetClass(ctx, svc.db, actor.ChurchID, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollments(ctx, svc.db, classID)
}

// Enroll enrolls a person in an open or ongoing class, within its capacity.
func (svc *Service) Enroll(ctx context.Context, actor core.Actor, classID, personID string) (Enrollment, error) {
	personID = core.CleanString(personID)
	c, err := svc.repo.GetClass(ctx, svc.db, actor.ChurchID, classID)
	if err != nil {
		return Enrollment{}, err
	}
	if c.Status != ClassOpen && c.Status != ClassInProgress {
		return Enrollment{}, core.NewValidationError(ErrClassClosed, core.FieldError{Field: "class_id", Error: "a turma não aceita matrículas"})
	}
	if err = svc.checkPerson(ctx, actor, "person_id", personID); err != nil {
		return Enrollment{}, err
	}

	enrolled, err := svc.repo.IsEnrolled(ctx, svc.db, classID, personID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if enrolled {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled, core.FieldError{Field: "person_id", Error: "pessoa já matriculada nesta turma"})
	}
	if c.Capacity > 0 && c.Enrollments >= c.Capacity {
		return Enrollment{}, core.NewValidationError(ErrClassFull, core.FieldError{Field: "class_id", Error: "turma lotada"})
	}

	e, err := svc.repo.CreateEnrollment(ctx, svc.db, Enrollment{
		ClassID:    classID,
		PersonID:   personID,
		Status:     EnrollmentActive,
		EnrolledAt: core.NowFunc(),
	})
	if err != nil {
		return Enrollment{}, err
	}
	svc.audit.LogAction(ctx, actor, "matricula.criar", fmt.Sprintf("Pessoa %s matriculada na turma %s", personID, c.Name))
	return e, nil
}

func (svc *Service) UpdateEnrollment(ctx context.Context, actor core.Actor, id string, eu EnrollmentUpdate) (Enrollment, error) {
	if err := eu.Validate(); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.GetEnrollment(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Enrollment{}, err
	}
	eu.apply(&e)
	return svc.repo.UpdateEnrollment(ctx, svc.db, e)
}

// Trail lists the active courses in trail order with the person's most advanced enrollment in each.
func (svc *Service) Trail(ctx context.Context, actor core.Actor, personID string) (Trail, error) {
	if err := svc.checkPerson(ctx, actor, "person_id", personID); err != nil {
		return Trail{}, err
	}
	rows, err := svc.repo.QueryTrail(ctx, svc.db, actor.ChurchID, personID)
	if err != nil {
		return Trail{}, err
	}

	trail := Trail{Steps: make([]TrailStep, 0)}
	index := make(map[string]int)
	for _, row := range rows {
		i, seen := index[row.ID]
		if !seen {
			index[row.ID] = len(trail.Steps)
			trail.Steps = append(trail.Steps, TrailStep{Course: row.Course})
			i = len(trail.Steps) - 1
		}
		step := &trail.Steps[i]
		if !row.EnrollmentStatus.Valid || trailRank[row.EnrollmentStatus.String] <= trailRank[step.EnrollmentStatus.String] {
			continue
		}
		step.ClassName = row.ClassName
		step.EnrollmentStatus = row.EnrollmentStatus
		step.FinalGrade = row.FinalGrade
		step.CompletedAt = row.CompletedAt
	}

	trail.Total = len(trail.Steps)
	for _, step := range trail.Steps {
		if step.EnrollmentStatus == null.StringFrom(EnrollmentCompleted) {
			trail.Completed++
		}
	}
	return trail, nil
}

func (svc *Service) Stats(ctx context.Context, actor core.Actor) (Stats, error) {
	return svc.repo.Stats(ctx, svc.db, actor.ChurchID)
}

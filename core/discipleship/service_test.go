package discipleship_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/discipleship"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	svc    *discipleship.Service
	actor  core.Actor
	people []person.Person
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC))

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	usr := testutil.CreateUser(t, db, ch.ID, "Pastor", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true)
	return fixture{
		svc:   discipleship.NewService(db, sqlxrepos.NewDiscipleshipRepository(), testutil.NopActionLogger{}),
		actor: usr.Actor(),
		people: []person.Person{
			testutil.CreatePerson(t, db, ch.ID, "Ana Souza", person.StatusMember),
			testutil.CreatePerson(t, db, ch.ID, "Bruno Lima", person.StatusNewConvert),
			testutil.CreatePerson(t, db, ch.ID, "Carla Dias", person.StatusMember),
		},
	}
}

func (f fixture) createCourse(t *testing.T, name string, order int) discipleship.Course {
	t.Helper()
	c, err := f.svc.CreateCourse(context.Background(), f.actor, discipleship.CourseInput{Name: name, Hours: 12, TrailOrder: order})
	require.NoError(t, err)
	return c
}

func (f fixture) createClass(t *testing.T, courseID, name string, capacity int) discipleship.Class {
	t.Helper()
	c, err := f.svc.CreateClass(context.Background(), f.actor, discipleship.ClassInput{
		CourseID:  courseID,
		Name:      name,
		StartDate: "2024-03-01",
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return c
}

func TestService_Classes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	course := f.createCourse(t, "Fundamentos da Fé", 1)

	tests := []struct {
		name  string
		in    discipleship.ClassInput
		field string
	}{
		{"unknown course", discipleship.ClassInput{CourseID: "nope", Name: "T1", StartDate: "2024-03-01"}, "course_id"},
		{"unknown instructor", discipleship.ClassInput{CourseID: course.ID, Name: "T1", StartDate: "2024-03-01", InstructorID: "nope"}, "instructor_id"},
		{"end before start", discipleship.ClassInput{CourseID: course.ID, Name: "T1", StartDate: "2024-03-01", EndDate: "2024-02-01"}, "end_date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateClass(ctx, f.actor, tc.in)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
		})
	}

	c, err := f.svc.CreateClass(ctx, f.actor, discipleship.ClassInput{
		CourseID:     course.ID,
		Name:         "Turma Março",
		InstructorID: f.people[0].ID,
		StartDate:    "2024-03-01",
		EndDate:      "2024-05-31",
	})
	require.NoError(t, err)
	assert.Equal(t, discipleship.ClassOpen, c.Status)
	assert.Equal(t, discipleship.DefaultCapacity, c.Capacity)

	classes, err := f.svc.QueryClasses(ctx, f.actor, course.ID, discipleship.ClassOpen)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Fundamentos da Fé", classes[0].CourseName)
	assert.Equal(t, null.StringFrom("Ana Souza"), classes[0].InstructorName)

	classes, err = f.svc.QueryClasses(ctx, f.actor, "", discipleship.ClassFinished)
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	course := f.createCourse(t, "Fundamentos da Fé", 1)
	class := f.createClass(t, course.ID, "Turma Março", 2)

	e, err := f.svc.Enroll(ctx, f.actor, class.ID, f.people[0].ID)
	require.NoError(t, err)
	assert.Equal(t, discipleship.EnrollmentActive, e.Status)

	_, err = f.svc.Enroll(ctx, f.actor, class.ID, f.people[0].ID)
	assert.ErrorIs(t, err, discipleship.ErrAlreadyEnrolled)

	_, err = f.svc.Enroll(ctx, f.actor, class.ID, f.people[1].ID)
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, f.actor, class.ID, f.people[2].ID)
	assert.ErrorIs(t, err, discipleship.ErrClassFull)

	_, err = f.svc.Enroll(ctx, f.actor, class.ID, "nope")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "person_id", verr.Fields[0].Field)

	t.Run("closed class", func(t *testing.T) {
		closed, err := f.svc.CreateClass(ctx, f.actor, discipleship.ClassInput{
			CourseID: course.ID, Name: "Turma antiga", StartDate: "2023-03-01", Status: discipleship.ClassFinished,
		})
		require.NoError(t, err)
		_, err = f.svc.Enroll(ctx, f.actor, closed.ID, f.people[2].ID)
		assert.ErrorIs(t, err, discipleship.ErrClassClosed)
	})

	t.Run("update", func(t *testing.T) {
		issued := true
		e, err := f.svc.UpdateEnrollment(ctx, f.actor, e.ID, discipleship.EnrollmentUpdate{
			Status:            discipleship.EnrollmentCompleted,
			FinalGrade:        null.Float64From(9.5),
			Attendance:        null.Float64From(87.5),
			CertificateIssued: &issued,
		})
		require.NoError(t, err)
		assert.Equal(t, null.TimeFrom(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)), e.CompletedAt)
		assert.True(t, e.CertificateIssued)

		_, err = f.svc.UpdateEnrollment(ctx, f.actor, e.ID, discipleship.EnrollmentUpdate{FinalGrade: null.Float64From(11)})
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "final_grade", verr.Fields[0].Field)

		enrollments, err := f.svc.Enrollments(ctx, f.actor, class.ID)
		require.NoError(t, err)
		require.Len(t, enrollments, 2)
		assert.Equal(t, "Ana Souza", enrollments[0].PersonName)
		assert.Equal(t, null.Float64From(9.5), enrollments[0].FinalGrade)
		assert.Equal(t, discipleship.EnrollmentCompleted, enrollments[0].Status)
	})
}

func TestService_TrailAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.people[0].ID

	basics := f.createCourse(t, "Fundamentos", 1)
	growth := f.createCourse(t, "Crescimento", 2)
	leaders := f.createCourse(t, "Liderança", 3)
	retired := f.createCourse(t, "Antigo", 4)
	require.NoError(t, f.svc.DeleteCourse(ctx, f.actor, retired.ID))

	// Ana dropped the first class of "Fundamentos" and completed the second one.
	first := f.createClass(t, basics.ID, "Fundamentos T1", 0)
	second := f.createClass(t, basics.ID, "Fundamentos T2", 0)
	growthClass := f.createClass(t, growth.ID, "Crescimento T1", 0)
	f.createClass(t, leaders.ID, "Liderança T1", 0)

	dropped, err := f.svc.Enroll(ctx, f.actor, first.ID, ana)
	require.NoError(t, err)
	_, err = f.svc.UpdateEnrollment(ctx, f.actor, dropped.ID, discipleship.EnrollmentUpdate{Status: discipleship.EnrollmentDropped})
	require.NoError(t, err)
	done, err := f.svc.Enroll(ctx, f.actor, second.ID, ana)
	require.NoError(t, err)
	_, err = f.svc.UpdateEnrollment(ctx, f.actor, done.ID, discipleship.EnrollmentUpdate{
		Status:      discipleship.EnrollmentCompleted,
		CompletedAt: "2024-02-28",
		FinalGrade:  null.Float64From(8),
	})
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, f.actor, growthClass.ID, ana)
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, f.actor, growthClass.ID, f.people[1].ID)
	require.NoError(t, err)

	trail, err := f.svc.Trail(ctx, f.actor, ana)
	require.NoError(t, err)
	assert.Equal(t, 3, trail.Total)
	assert.Equal(t, 1, trail.Completed)
	require.Len(t, trail.Steps, 3)

	assert.Equal(t, "Fundamentos", trail.Steps[0].Course.Name)
	assert.Equal(t, null.StringFrom(discipleship.EnrollmentCompleted), trail.Steps[0].EnrollmentStatus)
	assert.Equal(t, null.StringFrom("Fundamentos T2"), trail.Steps[0].ClassName)
	assert.Equal(t, null.Float64From(8), trail.Steps[0].FinalGrade)

	assert.Equal(t, null.StringFrom(discipleship.EnrollmentActive), trail.Steps[1].EnrollmentStatus)
	assert.False(t, trail.Steps[2].EnrollmentStatus.Valid)
	assert.False(t, trail.Steps[2].ClassName.Valid)

	stats, err := f.svc.Stats(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, discipleship.Stats{Courses: 3, OpenClasses: 4, ActiveStudents: 2, Graduates: 1}, stats)

	courses, err := f.svc.QueryCourses(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, 2, courses[0].Classes)
	assert.Equal(t, 1, courses[0].Graduates)
}

package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/discipleship"
)

const courseListQuery = `SELECT c.id, c.church_id, c.name, c.description, c.category, c.hours, c.trail_order, c.is_active, c.created_at,
		(SELECT COUNT(*) FROM classes cl WHERE cl.course_id = c.id) AS classes,
		(SELECT COUNT(*) FROM enrollments e JOIN classes cl ON cl.id = e.class_id
			WHERE cl.course_id = c.id AND e.status = 'concluida') AS graduates
	FROM courses c
	WHERE c.church_id = ?`

// enrollments exclude dropouts
const classListQuery = `SELECT cl.id, cl.course_id, cl.name, cl.instructor_id, cl.start_date, cl.end_date, cl.schedule, cl.location,
		cl.capacity, cl.status, cl.created_at,
		c.name AS course_name, i.name AS instructor_name,
		(SELECT COUNT(*) FROM enrollments e WHERE e.class_id = cl.id AND e.status <> 'desistente') AS enrollments
	FROM classes cl
	JOIN courses c ON c.id = cl.course_id
	LEFT JOIN people i ON i.id = cl.instructor_id
	WHERE c.church_id = ?`

const enrollmentColumns = "e.id, e.class_id, e.person_id, e.status, e.final_grade, e.attendance, e.completed_at, " +
	"e.certificate_issued, e.enrolled_at"

type discipleshipRepository struct{}

var _ discipleship.Repository = (*discipleshipRepository)(nil)

func NewDiscipleshipRepository() discipleship.Repository {
	return &discipleshipRepository{}
}

func (repo *discipleshipRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *discipleshipRepository) QueryCourses(ctx context.Context, db core.DBExecutor, churchID string) ([]discipleship.CourseListItem, error) {
	courses := make([]discipleship.CourseListItem, 0)
	err := selectAll(ctx, db, &courses, courseListQuery+" AND c.is_active = TRUE ORDER BY c.trail_order, c.name", churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *discipleshipRepository) GetCourse(ctx context.Context, db core.DBExecutor, churchID, id string) (discipleship.CourseListItem, error) {
	var c discipleship.CourseListItem
	if err := get(ctx, db, &c, discipleship.ErrNotFound, courseListQuery+" AND c.id = ?", churchID, id); err != nil {
		return discipleship.CourseListItem{}, err
	}
	return c, nil
}

func (repo *discipleshipRepository) CreateCourse(ctx context.Context, db core.DBExecutor, c discipleship.Course) (discipleship.Course, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO courses
		(id, church_id, name, description, category, hours, trail_order, is_active, created_at)
		VALUES (:id, :church_id, :name, :description, :category, :hours, :trail_order, :is_active, :created_at)`, c)
	if err != nil {
		return discipleship.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *discipleshipRepository) UpdateCourse(ctx context.Context, db core.DBExecutor, c discipleship.Course) (discipleship.Course, error) {
	_, err := namedExec(ctx, db, `UPDATE courses SET
		name = :name, description = :description, category = :category, hours = :hours, trail_order = :trail_order,
		is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, c)
	if err != nil {
		return discipleship.Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

func (repo *discipleshipRepository) QueryClasses(
	ctx context.Context,
	db core.DBExecutor,
	churchID, courseID, status string,
) ([]discipleship.ClassListItem, error) {
	query := classListQuery
	args := []interface{}{churchID}
	if courseID != "" {
		query += " AND cl.course_id = ?"
		args = append(args, courseID)
	}
	if status != "" {
		query += " AND cl.status = ?"
		args = append(args, status)
	}

	classes := make([]discipleship.ClassListItem, 0)
	if err := selectAll(ctx, db, &classes, query+" ORDER BY cl.start_date DESC, cl.name", args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (repo *discipleshipRepository) GetClass(ctx context.Context, db core.DBExecutor, churchID, id string) (discipleship.ClassListItem, error) {
	var c discipleship.ClassListItem
	if err := get(ctx, db, &c, discipleship.ErrClassNotFound, classListQuery+" AND cl.id = ?", churchID, id); err != nil {
		return discipleship.ClassListItem{}, err
	}
	return c, nil
}

func (repo *discipleshipRepository) CreateClass(ctx context.Context, db core.DBExecutor, c discipleship.Class) (discipleship.Class, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO classes
		(id, course_id, name, instructor_id, start_date, end_date, schedule, location, capacity, status, created_at)
		VALUES (:id, :course_id, :name, :instructor_id, :start_date, :end_date, :schedule, :location, :capacity, :status,
			:created_at)`, c)
	if err != nil {
		return discipleship.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo *discipleshipRepository) UpdateClass(ctx context.Context, db core.DBExecutor, c discipleship.Class) (discipleship.Class, error) {
	_, err := namedExec(ctx, db, `UPDATE classes SET
		course_id = :course_id, name = :name, instructor_id = :instructor_id, start_date = :start_date, end_date = :end_date,
		schedule = :schedule, location = :location, capacity = :capacity, status = :status
		WHERE id = :id`, c)
	if err != nil {
		return discipleship.Class{}, errors.Wrap(err, "updating class")
	}
	return c, nil
}

func (repo *discipleshipRepository) QueryEnrollments(
	ctx context.Context,
	db core.DBExecutor,
	classID string,
) ([]discipleship.EnrollmentListItem, error) {
	enrollments := make([]discipleship.EnrollmentListItem, 0)
	err := selectAll(ctx, db, &enrollments, `SELECT `+enrollmentColumns+`, p.name AS person_name, p.mobile, p.email
		FROM enrollments e JOIN people p ON p.id = e.person_id
		WHERE e.class_id = ?
		ORDER BY p.name`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo *discipleshipRepository) GetEnrollment(ctx context.Context, db core.DBExecutor, churchID, id string) (discipleship.Enrollment, error) {
	var e discipleship.Enrollment
	err := get(ctx, db, &e, discipleship.ErrEnrollmentNotFound, `SELECT `+enrollmentColumns+`
		FROM enrollments e
		JOIN classes cl ON cl.id = e.class_id
		JOIN courses c ON c.id = cl.course_id
		WHERE c.church_id = ? AND e.id = ?`, churchID, id)
	if err != nil {
		return discipleship.Enrollment{}, err
	}
	return e, nil
}

func (repo *discipleshipRepository) IsEnrolled(ctx context.Context, db core.DBExecutor, classID, personID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM enrollments WHERE class_id = ? AND person_id = ?", classID, personID)
	return n > 0, err
}

func (repo *discipleshipRepository) CreateEnrollment(
	ctx context.Context,
	db core.DBExecutor,
	e discipleship.Enrollment,
) (discipleship.Enrollment, error) {
	e.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO enrollments
		(id, class_id, person_id, status, final_grade, attendance, completed_at, certificate_issued, enrolled_at)
		VALUES (:id, :class_id, :person_id, :status, :final_grade, :attendance, :completed_at, :certificate_issued,
			:enrolled_at)`, e)
	if err != nil {
		return discipleship.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *discipleshipRepository) UpdateEnrollment(
	ctx context.Context,
	db core.DBExecutor,
	e discipleship.Enrollment,
) (discipleship.Enrollment, error) {
	_, err := namedExec(ctx, db, `UPDATE enrollments SET
		status = :status, final_grade = :final_grade, attendance = :attendance, completed_at = :completed_at,
		certificate_issued = :certificate_issued
		WHERE id = :id`, e)
	if err != nil {
		return discipleship.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return e, nil
}

func (repo *discipleshipRepository) QueryTrail(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]discipleship.TrailRow, error) {
	rows := make([]discipleship.TrailRow, 0)
	err := selectAll(ctx, db, &rows, `SELECT c.id, c.church_id, c.name, c.description, c.category, c.hours, c.trail_order,
			c.is_active, c.created_at,
			cl.name AS class_name, e.status AS enrollment_status, e.final_grade, e.completed_at
		FROM courses c
		LEFT JOIN classes cl ON cl.course_id = c.id
			AND EXISTS (SELECT 1 FROM enrollments x WHERE x.class_id = cl.id AND x.person_id = ?)
		LEFT JOIN enrollments e ON e.class_id = cl.id AND e.person_id = ?
		WHERE c.church_id = ? AND c.is_active = TRUE
		ORDER BY c.trail_order, c.name`, personID, personID, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying trail")
	}
	return rows, nil
}

func (repo *discipleshipRepository) Stats(ctx context.Context, db core.DBExecutor, churchID string) (discipleship.Stats, error) {
	var stats discipleship.Stats
	err := get(ctx, db, &stats, nil, `SELECT
		(SELECT COUNT(*) FROM courses WHERE church_id = ? AND is_active = TRUE) AS courses,
		(SELECT COUNT(*) FROM classes cl JOIN courses c ON c.id = cl.course_id
			WHERE c.church_id = ? AND cl.status = 'aberta') AS open_classes,
		(SELECT COUNT(DISTINCT e.person_id) FROM enrollments e
			JOIN classes cl ON cl.id = e.class_id JOIN courses c ON c.id = cl.course_id
			WHERE c.church_id = ? AND e.status = 'ativa') AS active_students,
		(SELECT COUNT(*) FROM enrollments e
			JOIN classes cl ON cl.id = e.class_id JOIN courses c ON c.id = cl.course_id
			WHERE c.church_id = ? AND e.status = 'concluida') AS graduates`, churchID, churchID, churchID, churchID)
	if err != nil {
		return discipleship.Stats{}, errors.Wrap(err, "querying discipleship stats")
	}
	return stats, nil
}

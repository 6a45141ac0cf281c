package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/person"
)

const personColumns = `id, church_id, family_id, name, email, phone, mobile, birth_date, gender, marital_status,
	address, neighborhood, city, state, zip_code, status, conversion_date, baptism_date, membership_date,
	how_heard, notes, photo_url, is_active, created_at, updated_at`

const personListColumns = `p.id, p.church_id, p.family_id, p.name, p.email, p.phone, p.mobile, p.birth_date, p.gender,
	p.marital_status, p.address, p.neighborhood, p.city, p.state, p.zip_code, p.status, p.conversion_date,
	p.baptism_date, p.membership_date, p.how_heard, p.notes, p.photo_url, p.is_active, p.created_at, p.updated_at`

type personRepository struct{}

var _ person.Repository = (*personRepository)(nil)

func NewPersonRepository() person.Repository {
	return &personRepository{}
}

func (repo *personRepository) CreatePerson(ctx context.Context, db core.DBExecutor, p person.Person) (person.Person, error) {
	p.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO people (`+personColumns+`) VALUES (:id, :church_id, :family_id, :name,
		:email, :phone, :mobile, :birth_date, :gender, :marital_status, :address, :neighborhood, :city, :state,
		:zip_code, :status, :conversion_date, :baptism_date, :membership_date, :how_heard, :notes, :photo_url,
		:is_active, :created_at, :updated_at)`, p)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "inserting person")
	}
	return p, nil
}

func (repo *personRepository) GetPerson(ctx context.Context, db core.DBExecutor, churchID, id string) (person.Person, error) {
	var p person.Person
	err := get(ctx, db, &p, person.ErrNotFound,
		"SELECT "+personColumns+" FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return p, err
}

func (repo *personRepository) QueryPeople(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	filter person.QueryFilter,
) ([]person.ListItem, error) {
	q := `SELECT ` + personListColumns + `, f.name AS family_name
		FROM people p LEFT JOIN families f ON f.id = p.family_id
		WHERE p.church_id = ? AND p.is_active = TRUE`
	args := []interface{}{churchID}

	if filter.Status != "" {
		q += " AND p.status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q += " AND (LOWER(p.name) LIKE ? OR LOWER(p.email) LIKE ? OR p.mobile LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.TagID != "" {
		q += " AND EXISTS (SELECT 1 FROM person_tags pt WHERE pt.person_id = p.id AND pt.tag_id = ?)"
		args = append(args, filter.TagID)
	}
	q += " ORDER BY p.name"

	people := make([]person.ListItem, 0)
	if err := selectAll(ctx, db, &people, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying people")
	}
	return people, nil
}

func (repo *personRepository) FindDuplicate(
	ctx context.Context,
	db core.DBExecutor,
	churchID, name, email, mobile, excludeID string,
) (person.Person, error) {
	conds := "LOWER(TRIM(name)) = LOWER(?)"
	args := []interface{}{churchID, name}
	if email != "" {
		conds += " OR LOWER(TRIM(email)) = LOWER(?)"
		args = append(args, email)
	}
	if mobile != "" {
		conds += " OR TRIM(mobile) = ?"
		args = append(args, mobile)
	}

	q := "SELECT " + personColumns + " FROM people WHERE church_id = ? AND is_active = TRUE AND (" + conds + ")"
	if excludeID != "" {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	q += " LIMIT 1"

	var p person.Person
	err := get(ctx, db, &p, person.ErrNotFound, q, args...)
	return p, err
}

func (repo *personRepository) UpdatePerson(ctx context.Context, db core.DBExecutor, p person.Person) (person.Person, error) {
	_, err := namedExec(ctx, db, `UPDATE people SET family_id = :family_id, name = :name, email = :email,
		phone = :phone, mobile = :mobile, birth_date = :birth_date, gender = :gender, marital_status = :marital_status,
		address = :address, neighborhood = :neighborhood, city = :city, state = :state, zip_code = :zip_code,
		status = :status, conversion_date = :conversion_date, baptism_date = :baptism_date,
		membership_date = :membership_date, how_heard = :how_heard, notes = :notes, photo_url = :photo_url,
		is_active = :is_active, updated_at = :updated_at
		WHERE id = :id AND church_id = :church_id`, p)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "updating person")
	}
	return p, nil
}

func (repo *personRepository) SetPersonActive(ctx context.Context, db core.DBExecutor, churchID, id string, active bool) error {
	return execOne(ctx, db, person.ErrNotFound,
		"UPDATE people SET is_active = ?, updated_at = ? WHERE church_id = ? AND id = ?",
		active, core.NowFunc(), churchID, id)
}

func (repo *personRepository) QueryPersonTags(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	personIDs ...string,
) ([]person.PersonTag, error) {
	tags := make([]person.PersonTag, 0)
	if len(personIDs) == 0 {
		return tags, nil
	}
	err := selectIn(ctx, db, &tags, `SELECT pt.person_id, t.name FROM person_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE t.church_id = ? AND pt.person_id IN (?) ORDER BY t.name`, churchID, personIDs)
	return tags, err
}

func (repo *personRepository) SetPersonTags(ctx context.Context, db core.DBExecutor, churchID, personID string, tagIDs []string) error {
	if _, err := exec(ctx, db, "DELETE FROM person_tags WHERE person_id = ?", personID); err != nil {
		return errors.Wrap(err, "clearing person tags")
	}
	for _, tagID := range tagIDs {
		// tags of other churches are silently skipped
		_, err := exec(ctx, db, `INSERT INTO person_tags (person_id, tag_id)
			SELECT ?, id FROM tags WHERE id = ? AND church_id = ?`, personID, tagID, churchID)
		if err != nil {
			return errors.Wrap(err, "inserting person tag")
		}
	}
	return nil
}

func (repo *personRepository) QueryTags(ctx context.Context, db core.DBExecutor, churchID string) ([]person.Tag, error) {
	tags := make([]person.Tag, 0)
	err := selectAll(ctx, db, &tags, "SELECT id, church_id, name, color FROM tags WHERE church_id = ? ORDER BY name", churchID)
	return tags, errors.Wrap(err, "querying tags")
}

func (repo *personRepository) CreateTag(ctx context.Context, db core.DBExecutor, tag person.Tag) (person.Tag, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM tags WHERE church_id = ? AND LOWER(name) = LOWER(?)", tag.ChurchID, tag.Name)
	if err != nil {
		return person.Tag{}, errors.Wrap(err, "checking tag name")
	}
	if n > 0 {
		return person.Tag{}, person.ErrTagExists
	}

	tag.ID = newID()
	if _, err = namedExec(ctx, db, "INSERT INTO tags (id, church_id, name, color) VALUES (:id, :church_id, :name, :color)", tag); err != nil {
		return person.Tag{}, errors.Wrap(err, "inserting tag")
	}
	return tag, nil
}

const familyQuery = `SELECT f.id, f.church_id, f.name, f.created_at,
	(SELECT COUNT(*) FROM people p WHERE p.family_id = f.id AND p.is_active = TRUE) AS member_count
	FROM families f`

func (repo *personRepository) QueryFamilies(ctx context.Context, db core.DBExecutor, churchID string) ([]person.Family, error) {
	families := make([]person.Family, 0)
	err := selectAll(ctx, db, &families, familyQuery+" WHERE f.church_id = ? ORDER BY f.name", churchID)
	return families, errors.Wrap(err, "querying families")
}

func (repo *personRepository) GetFamily(ctx context.Context, db core.DBExecutor, churchID, id string) (person.Family, error) {
	var f person.Family
	err := get(ctx, db, &f, person.ErrFamilyNotFound, familyQuery+" WHERE f.church_id = ? AND f.id = ?", churchID, id)
	return f, err
}

func (repo *personRepository) CreateFamily(ctx context.Context, db core.DBExecutor, f person.Family) (person.Family, error) {
	f.ID = newID()
	_, err := namedExec(ctx, db, "INSERT INTO families (id, church_id, name, created_at) VALUES (:id, :church_id, :name, :created_at)", f)
	if err != nil {
		return person.Family{}, errors.Wrap(err, "inserting family")
	}
	return f, nil
}

func (repo *personRepository) QueryAttendance(ctx context.Context, db core.DBExecutor, personID string, limit int) ([]person.AttendanceRecord, error) {
	records := make([]person.AttendanceRecord, 0)
	err := selectAll(ctx, db, &records, `SELECT ea.event_id, e.name AS event_name, e.event_type, e.starts_at, ea.checked_in_at
		FROM event_attendance ea JOIN events e ON e.id = ea.event_id
		WHERE ea.person_id = ? ORDER BY e.starts_at DESC LIMIT ?`, personID, limit)
	return records, err
}

func (repo *personRepository) QueryMinistryMemberships(ctx context.Context, db core.DBExecutor, personID string) ([]person.Membership, error) {
	records := make([]person.Membership, 0)
	err := selectAll(ctx, db, &records, `SELECT m.id, m.name, mm.role, mm.joined_at, mm.is_active
		FROM ministry_members mm JOIN ministries m ON m.id = mm.ministry_id
		WHERE mm.person_id = ? ORDER BY m.name`, personID)
	return records, err
}

func (repo *personRepository) QueryCellMemberships(ctx context.Context, db core.DBExecutor, personID string) ([]person.Membership, error) {
	records := make([]person.Membership, 0)
	err := selectAll(ctx, db, &records, `SELECT c.id, c.name, cm.role, cm.joined_at, cm.is_active
		FROM cell_members cm JOIN cells c ON c.id = cm.cell_id
		WHERE cm.person_id = ? ORDER BY c.name`, personID)
	return records, err
}

func (repo *personRepository) QueryFollowUps(ctx context.Context, db core.DBExecutor, personID string) ([]person.FollowUpRecord, error) {
	records := make([]person.FollowUpRecord, 0)
	err := selectAll(ctx, db, &records, `SELECT id, type, due_date, status, result, completed_at
		FROM follow_ups WHERE person_id = ? ORDER BY due_date DESC`, personID)
	return records, err
}

func (repo *personRepository) QueryCounseling(ctx context.Context, db core.DBExecutor, personID string) ([]person.CounselingRecord, error) {
	records := make([]person.CounselingRecord, 0)
	err := selectAll(ctx, db, &records, `SELECT cs.id, cs.session_date, cs.session_type, cs.status, c.name AS counselor_name
		FROM counseling_sessions cs JOIN people c ON c.id = cs.counselor_id
		WHERE cs.person_id = ? ORDER BY cs.session_date DESC`, personID)
	return records, err
}

func (repo *personRepository) QueryDonations(ctx context.Context, db core.DBExecutor, personID string) ([]person.DonationRecord, error) {
	records := make([]person.DonationRecord, 0)
	err := selectAll(ctx, db, &records, `SELECT id, amount, donation_type, donated_at
		FROM donations WHERE person_id = ? ORDER BY donated_at DESC`, personID)
	return records, err
}

func (repo *personRepository) QueryConsents(ctx context.Context, db core.DBExecutor, personID string) ([]person.Consent, error) {
	consents := make([]person.Consent, 0)
	err := selectAll(ctx, db, &consents, `SELECT id, church_id, person_id, consent_type, granted, ip, created_at
		FROM lgpd_consents WHERE person_id = ? ORDER BY created_at DESC`, personID)
	return consents, err
}

func (repo *personRepository) CreateConsent(ctx context.Context, db core.DBExecutor, c person.Consent) (person.Consent, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO lgpd_consents (id, church_id, person_id, consent_type, granted, ip, created_at)
		VALUES (:id, :church_id, :person_id, :consent_type, :granted, :ip, :created_at)`, c)
	if err != nil {
		return person.Consent{}, errors.Wrap(err, "inserting consent")
	}
	return c, nil
}

const anonymousName = "Anônimo"

func (repo *personRepository) Anonymize(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	err := execOne(ctx, db, person.ErrNotFound, `UPDATE people SET name = ?, email = '', phone = '', mobile = '',
		birth_date = NULL, address = '', neighborhood = '', city = '', state = '', zip_code = '', how_heard = '',
		notes = '', photo_url = '', family_id = NULL, status = ?, is_active = FALSE, updated_at = ?
		WHERE church_id = ? AND id = ?`, anonymousName, person.StatusInactive, core.NowFunc(), churchID, id)
	if err != nil {
		return err
	}
	if _, err = exec(ctx, db, "DELETE FROM person_tags WHERE person_id = ?", id); err != nil {
		return errors.Wrap(err, "clearing person tags")
	}
	_, err = exec(ctx, db, "UPDATE donations SET person_id = NULL, is_anonymous = TRUE WHERE church_id = ? AND person_id = ?", churchID, id)
	return errors.Wrap(err, "detaching donations")
}

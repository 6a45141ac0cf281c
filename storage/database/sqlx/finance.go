package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/finance"
)

const donationColumns = "d.id, d.church_id, d.person_id, d.amount, d.donation_type, d.payment_method, d.reference, d.notes, " +
	"d.donated_at, d.is_anonymous, d.registered_by, d.created_at"

type financeRepository struct{}

var _ finance.Repository = (*financeRepository)(nil)

func NewFinanceRepository() finance.Repository {
	return &financeRepository{}
}

func (repo *financeRepository) PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, personID)
	return n > 0, err
}

func (repo *financeRepository) QueryDonations(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	filter finance.Filter,
) ([]finance.DonationListItem, error) {
	query := `SELECT ` + donationColumns + `,
			CASE WHEN d.is_anonymous = TRUE THEN NULL ELSE p.name END AS person_name
		FROM donations d LEFT JOIN people p ON p.id = d.person_id
		WHERE d.church_id = ?`
	args := []interface{}{churchID}

	from, to := filter.Range()
	if from.Valid {
		query += " AND d.donated_at >= ?"
		args = append(args, from.Time)
	}
	if to.Valid {
		query += " AND d.donated_at <= ?"
		args = append(args, to.Time)
	}
	if filter.Type != "" {
		query += " AND d.donation_type = ?"
		args = append(args, filter.Type)
	}
	if filter.PersonID != "" {
		query += " AND d.person_id = ?"
		args = append(args, filter.PersonID)
	}

	donations := make([]finance.DonationListItem, 0)
	if err := selectAll(ctx, db, &donations, query+" ORDER BY d.donated_at DESC, d.created_at DESC", args...); err != nil {
		return nil, errors.Wrap(err, "querying donations")
	}
	return donations, nil
}

func (repo *financeRepository) CreateDonation(ctx context.Context, db core.DBExecutor, d finance.Donation) (finance.Donation, error) {
	d.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO donations
		(id, church_id, person_id, amount, donation_type, payment_method, reference, notes, donated_at, is_anonymous,
			registered_by, created_at)
		VALUES (:id, :church_id, :person_id, :amount, :donation_type, :payment_method, :reference, :notes, :donated_at,
			:is_anonymous, :registered_by, :created_at)`, d)
	if err != nil {
		return finance.Donation{}, errors.Wrap(err, "inserting donation")
	}
	return d, nil
}

func (repo *financeRepository) QueryTotalsByType(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	since time.Time,
) (map[string]finance.TypeTotal, error) {
	var rows []struct {
		Type  string     `db:"donation_type"`
		Total core.Money `db:"total"`
		Count int        `db:"count"`
	}
	err := selectAll(ctx, db, &rows, `SELECT donation_type, SUM(amount) AS total, COUNT(*) AS count
		FROM donations WHERE church_id = ? AND donated_at >= ?
		GROUP BY donation_type`, churchID, since)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]finance.TypeTotal, len(rows))
	for _, r := range rows {
		totals[r.Type] = finance.TypeTotal{Total: r.Total, Count: r.Count}
	}
	return totals, nil
}

func (repo *financeRepository) SumBetween(ctx context.Context, db core.DBExecutor, churchID string, from, to time.Time) (core.Money, error) {
	var total core.Money
	err := db.GetContext(ctx, &total, db.Rebind(`SELECT COALESCE(SUM(amount), 0) FROM donations
		WHERE church_id = ? AND donated_at >= ? AND donated_at < ?`), churchID, from, to)
	return total, err
}

func (repo *financeRepository) QueryTopContributors(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	since time.Time,
	limit int,
) ([]finance.Contributor, error) {
	var rows []struct {
		PersonID string     `db:"person_id"`
		Name     string     `db:"name"`
		Total    core.Money `db:"total"`
	}
	err := selectAll(ctx, db, &rows, `SELECT p.id AS person_id, p.name, SUM(d.amount) AS total
		FROM donations d JOIN people p ON p.id = d.person_id
		WHERE d.church_id = ? AND d.donated_at >= ? AND d.is_anonymous = FALSE
		GROUP BY p.id, p.name
		ORDER BY total DESC
		LIMIT ?`, churchID, since, limit)
	if err != nil {
		return nil, err
	}

	contributors := make([]finance.Contributor, 0, len(rows))
	for _, r := range rows {
		contributors = append(contributors, finance.Contributor{PersonID: r.PersonID, Name: r.Name, Total: r.Total})
	}
	return contributors, nil
}

func (repo *financeRepository) QueryPersonDonations(ctx context.Context, db core.DBExecutor, churchID, personID string) ([]finance.Donation, error) {
	donations := make([]finance.Donation, 0)
	err := selectAll(ctx, db, &donations, `SELECT `+donationColumns+` FROM donations d
		WHERE d.church_id = ? AND d.person_id = ?
		ORDER BY d.donated_at DESC, d.created_at DESC`, churchID, personID)
	if err != nil {
		return nil, errors.Wrap(err, "querying person donations")
	}
	return donations, nil
}

func (repo *financeRepository) QueryDailyTotals(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	from, to time.Time,
) ([]finance.DailyTotal, error) {
	var rows []struct {
		Date  flexTime   `db:"donated_at"`
		Total core.Money `db:"total"`
		Count int        `db:"count"`
	}
	err := selectAll(ctx, db, &rows, `SELECT donated_at, SUM(amount) AS total, COUNT(*) AS count
		FROM donations WHERE church_id = ? AND donated_at >= ? AND donated_at < ?
		GROUP BY donated_at
		ORDER BY donated_at`, churchID, from, to)
	if err != nil {
		return nil, err
	}

	totals := make([]finance.DailyTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, finance.DailyTotal{Date: r.Date.Time.Time, Total: r.Total, Count: r.Count})
	}
	return totals, nil
}

package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
	// Loc is the zone attendance dates are interpreted in.
	Loc *time.Location
}

func NewStore(db querier.Querier, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{DB: db, Loc: loc}
}

const dateLayout = "2006-01-02"

const recordColumns = `
    id::text, employee_id::text, date, check_in, check_out, status,
    total_hours, overtime_hours, reminder_sent, auto_checkout, version,
    created_at, updated_at
`

func (s *Store) scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status,
		&rec.TotalHours, &rec.OvertimeHours, &rec.ReminderSent, &rec.AutoCheckout, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return rec, err
	}
	rec.Date = time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, s.Loc)
	return rec, nil
}

func (s *Store) Get(ctx context.Context, employeeID string, date time.Time) (*Record, error) {
	rec, err := s.scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id::text = $1 AND date = $2::date
  `, employeeID, date.Format(dateLayout)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	from, to := "", ""
	if !filter.From.IsZero() {
		from = filter.From.Format(dateLayout)
	}
	if !filter.To.IsZero() {
		to = filter.To.Format(dateLayout)
	}
	query := `
    SELECT ` + recordColumns + `
    FROM attendance_records
    WHERE ($1 = '' OR employee_id::text = $1)
      AND ($2 = '' OR date >= $2::date)
      AND ($3 = '' OR date <= $3::date)
    ORDER BY date DESC, employee_id`
	args := []any{filter.EmployeeID, from, to}
	if filter.Limit > 0 {
		query += ` LIMIT $4 OFFSET $5`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, rec Record) (*Record, error) {
	created, err := s.scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, date, check_in, check_out, status, total_hours, overtime_hours, reminder_sent, auto_checkout)
    VALUES ($1::uuid,$2::date,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.Date.Format(dateLayout), rec.CheckIn, rec.CheckOut, rec.Status,
		rec.TotalHours, rec.OvertimeHours, rec.ReminderSent, rec.AutoCheckout,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrDuplicateRecord
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) Update(ctx context.Context, rec Record) (*Record, error) {
	updated, err := s.scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendance_records
    SET check_in = $3, check_out = $4, status = $5, total_hours = $6, overtime_hours = $7,
        reminder_sent = $8, auto_checkout = $9, version = version + 1, updated_at = now()
    WHERE id::text = $1 AND version = $2
    RETURNING `+recordColumns,
		rec.ID, rec.Version, rec.CheckIn, rec.CheckOut, rec.Status, rec.TotalHours, rec.OvertimeHours,
		rec.ReminderSent, rec.AutoCheckout,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

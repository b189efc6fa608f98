package leave

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
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const dateLayout = "2006-01-02"

const entitlementColumns = `
    id::text, employee_id::text, leave_type, year,
    entitlement, accrued, used, pending, available, accrual_rate,
    created_at, updated_at
`

const requestColumns = `
    id::text, employee_id::text, leave_type, start_date, end_date, total_days,
    status, reason, COALESCE(approved_by, ''), approved_at,
    COALESCE(rejection_reason, ''), created_at, updated_at
`

func scanEntitlement(row pgx.Row) (Entitlement, error) {
	var ent Entitlement
	var leaveType string
	err := row.Scan(
		&ent.ID, &ent.EmployeeID, &leaveType, &ent.Year,
		&ent.Entitlement, &ent.Accrued, &ent.Used, &ent.Pending, &ent.Available, &ent.AccrualRate,
		&ent.CreatedAt, &ent.UpdatedAt,
	)
	ent.LeaveType = LeaveType(leaveType)
	return ent, err
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var leaveType string
	err := row.Scan(
		&req.ID, &req.EmployeeID, &leaveType, &req.StartDate, &req.EndDate, &req.TotalDays,
		&req.Status, &req.Reason, &req.ApprovedBy, &req.ApprovedAt,
		&req.RejectionReason, &req.CreatedAt, &req.UpdatedAt,
	)
	req.LeaveType = LeaveType(leaveType)
	return req, err
}

func (s *Store) GetEntitlement(ctx context.Context, employeeID string, leaveType LeaveType, year int) (*Entitlement, error) {
	ent, err := scanEntitlement(s.DB.QueryRow(ctx, `
    SELECT `+entitlementColumns+`
    FROM leave_entitlements
    WHERE employee_id::text = $1 AND leave_type = $2 AND year = $3
  `, employeeID, string(leaveType), year))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntitlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

func (s *Store) ListEntitlements(ctx context.Context, employeeID string, year int) ([]Entitlement, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entitlementColumns+`
    FROM leave_entitlements
    WHERE employee_id::text = $1 AND year = $2
    ORDER BY leave_type
  `, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entitlement
	for rows.Next() {
		ent, err := scanEntitlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, rows.Err()
}

// InsertEntitlement returns ErrDuplicateEntitlement when another writer
// created the row first.
func (s *Store) InsertEntitlement(ctx context.Context, ent Entitlement) (*Entitlement, error) {
	created, err := scanEntitlement(s.DB.QueryRow(ctx, `
    INSERT INTO leave_entitlements (employee_id, leave_type, year, entitlement, accrued, used, pending, available, accrual_rate)
    VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (employee_id, leave_type, year) DO NOTHING
    RETURNING `+entitlementColumns,
		ent.EmployeeID, string(ent.LeaveType), ent.Year,
		ent.Entitlement, ent.Accrued, ent.Used, ent.Pending, ent.Available, ent.AccrualRate,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicateEntitlement
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateBalance(ctx context.Context, ent Entitlement) (*Entitlement, error) {
	updated, err := scanEntitlement(s.DB.QueryRow(ctx, `
    UPDATE leave_entitlements
    SET used = $2, pending = $3, available = $4, updated_at = now()
    WHERE id::text = $1
    RETURNING `+entitlementColumns,
		ent.ID, ent.Used, ent.Pending, ent.Available,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntitlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE id::text = $1
  `, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM leave_requests
    WHERE ($1 = '' OR employee_id::text = $1)
      AND ($2 = '' OR leave_type = $2)
      AND ($3 = 0 OR EXTRACT(YEAR FROM start_date)::int = $3)
      AND (cardinality($4::text[]) = 0 OR status = ANY($4::text[]))
    ORDER BY start_date DESC, created_at DESC`
	args := []any{filter.EmployeeID, string(filter.LeaveType), filter.Year, statusesArg(filter.Statuses)}
	if filter.Limit > 0 {
		query += ` LIMIT $5 OFFSET $6`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) FindOverlapping(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (*Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE employee_id::text = $1
      AND status IN ('pending', 'approved')
      AND start_date <= $3::date
      AND end_date >= $2::date
      AND ($4 = '' OR id::text <> $4)
    ORDER BY start_date
    LIMIT 1
  `, employeeID, start.Format(dateLayout), end.Format(dateLayout), excludeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) CreateRequest(ctx context.Context, req Request) (*Request, error) {
	created, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, total_days, status, reason)
    VALUES ($1::uuid,$2,$3::date,$4::date,$5,$6,$7)
    RETURNING `+requestColumns,
		req.EmployeeID, string(req.LeaveType), req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout),
		req.TotalDays, req.Status, req.Reason,
	))
	if isOverlapViolation(err) {
		return nil, ErrOverlap
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) TransitionRequest(ctx context.Context, requestID, from string, update Request) (*Request, error) {
	updated, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $3,
        approved_by = NULLIF($4, ''),
        approved_at = $5,
        rejection_reason = NULLIF($6, ''),
        updated_at = now()
    WHERE id::text = $1 AND status = $2
    RETURNING `+requestColumns,
		requestID, from, update.Status, update.ApprovedBy, update.ApprovedAt, update.RejectionReason,
	))
	if isOverlapViolation(err) {
		return nil, ErrOverlap
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetRequest(ctx, requestID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// isOverlapViolation reports a hit on leave_requests_no_overlap, which
// rejects a pending or approved range that intersects another one.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func statusesArg(statuses []string) []string {
	if statuses == nil {
		return []string{}
	}
	return statuses
}

package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    id::text,
    COALESCE(employee_number, ''),
    first_name, last_name, email,
    COALESCE(manager_id::text, ''),
    joining_date, status, created_at, updated_at
`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.ManagerID, &emp.JoiningDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE id::text = $1
  `, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	return s.list(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE status = $1
    ORDER BY id
  `, EmployeeStatusActive)
}

func (s *Store) ListByJoiningDate(ctx context.Context, from, to time.Time) ([]Employee, error) {
	return s.list(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE joining_date >= $1 AND joining_date <= $2
    ORDER BY joining_date, id
  `, from, to)
}

func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, error) {
	return s.list(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    ORDER BY last_name, first_name
    LIMIT $1 OFFSET $2
  `, limit, offset)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	status := emp.Status
	if status == "" {
		status = EmployeeStatusActive
	}
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (employee_number, first_name, last_name, email, manager_id, joining_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id::text
  `, nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email, nullIfEmpty(emp.ManagerID), emp.JoiningDate, status).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployeeStatus(ctx context.Context, employeeID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET status = $1, updated_at = now()
    WHERE id::text = $2
  `, status, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employees
    WHERE id::text = $1 AND manager_id::text = $2
  `, employeeID, managerEmployeeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

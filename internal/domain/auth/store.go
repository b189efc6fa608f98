package auth

import (
	"context"
	"errors"

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

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, email, password_hash, role, COALESCE(employee_id::text, ''), status, last_login, created_at
    FROM users
    WHERE email = $1 AND status = $2
  `, email, UserStatusActive).Scan(
		&out.ID, &out.Email, &out.PasswordHash, &out.Role, &out.EmployeeID, &out.Status, &out.LastLogin, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) CreateUser(ctx context.Context, user User) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role, employee_id, status)
    VALUES ($1,$2,$3,NULLIF($4, '')::uuid,$5)
    RETURNING id::text
  `, user.Email, user.PasswordHash, user.Role, user.EmployeeID, user.Status).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrUserExists
	}
	return id, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id::text = $1", userID)
	return err
}

package auth

import "context"

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, user User) (string, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

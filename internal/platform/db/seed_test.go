package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

func TestSeedCreatesAdminOnce(t *testing.T) {
	users := auth.NewService(auth.NewMemory(), "secret")
	cfg := config.Config{SeedAdminEmail: "hr@example.com", SeedAdminPassword: "change-me-now"}
	ctx := context.Background()

	require.NoError(t, Seed(ctx, cfg, users))
	require.NoError(t, Seed(ctx, cfg, users))

	result, err := users.Login(ctx, "hr@example.com", "change-me-now")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleHR, result.User.Role)
}

func TestSeedSkipsWithoutCredentials(t *testing.T) {
	users := auth.NewService(auth.NewMemory(), "secret")
	require.NoError(t, Seed(context.Background(), config.Config{SeedAdminEmail: "hr@example.com"}, users))

	_, err := users.Login(context.Background(), "hr@example.com", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

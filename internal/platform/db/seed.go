package db

import (
	"context"
	"strings"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

// Seed creates the bootstrap HR account named by SEED_ADMIN_EMAIL. It is a
// no-op when the seed credentials are unset or the account already exists.
func Seed(ctx context.Context, cfg config.Config, users *auth.Service) error {
	if strings.TrimSpace(cfg.SeedAdminEmail) == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}
	return users.EnsureUser(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, auth.RoleHR, "")
}

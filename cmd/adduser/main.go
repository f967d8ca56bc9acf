// Command adduser registers an operator account in the SST database.
//
//	adduser -name "Ana Souza" -email ana@example.com -role admin
//
// The password is read from SST_USER_PASSWORD, or from -password.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/globalled/sst/internal/sst/auth"
	"github.com/globalled/sst/internal/sst/config"
	"github.com/globalled/sst/internal/sst/db"
	"github.com/globalled/sst/internal/sst/models"
	"go.uber.org/zap"
)

const passwordEnv = "SST_USER_PASSWORD"

func main() {
	var (
		configPath = flag.String("config", "", "config file (defaults to $SST_CONFIG)")
		name       = flag.String("name", "", "display name")
		email      = flag.String("email", "", "login email")
		role       = flag.String("role", string(models.RoleOperator), "admin or operator")
		password   = flag.String("password", "", "login password (prefer "+passwordEnv+")")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	secret := os.Getenv(passwordEnv)
	if secret == "" {
		secret = *password
	}
	if err := run(*configPath, *name, *email, secret, models.Role(*role), logger); err != nil {
		logger.Error("failed to add user", zap.Error(err))
		os.Exit(1)
	}
}

func run(configPath, name, email, secret string, role models.Role, logger *zap.Logger) error {
	if role != models.RoleAdmin && role != models.RoleOperator {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.DBConfig())
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := auth.NewService(repo, cfg.JWTSecret, cfg.TokenTTL, logger)
	id, err := svc.Register(ctx, name, email, secret, role)
	if err != nil {
		return err
	}
	logger.Info("User created", zap.Uint("user_id", id), zap.String("email", email))
	return nil
}

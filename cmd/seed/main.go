// Команда seed создаёт пользователя панели: первого администратора или продавца.
//
//	seed -d postgres://... -login admin -password secret123
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/repository/postgres"
	"github.com/avc/smm-panel/internal/service"
	"github.com/avc/smm-panel/internal/utils/jwt"
	"github.com/avc/smm-panel/internal/utils/password"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	var (
		databaseURI = flag.String("d", os.Getenv("DATABASE_URI"), "database URI")
		login       = flag.String("login", "admin", "user login")
		pass        = flag.String("password", os.Getenv("SEED_PASSWORD"), "user password")
		name        = flag.String("name", "Administrator", "display name")
		role        = flag.String("role", string(domain.RoleAdmin), "admin or seller")
		commission  = flag.Float64("commission", 0, "seller commission rate, percent")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if *databaseURI == "" {
		logger.Fatal("database URI is required (use -d flag or DATABASE_URI env)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, *databaseURI)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Токены здесь не выпускаются, секрет не нужен
	auth := service.NewAuthService(
		postgres.NewUserRepository(pool),
		password.NewBCryptHasher(password.DefaultCost),
		jwt.NewManager("", time.Hour),
	)

	user, err := auth.CreateUser(ctx, service.NewUser{
		Login:          *login,
		Password:       *pass,
		Name:           *name,
		Role:           domain.Role(*role),
		CommissionRate: *commission,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			logger.Info("user already exists", zap.String("login", *login))
			return
		}
		logger.Fatal("failed to create user", zap.Error(err))
	}

	logger.Info("user created",
		zap.Int64("id", user.ID),
		zap.String("login", user.Login),
		zap.String("role", string(user.Role)),
	)
}

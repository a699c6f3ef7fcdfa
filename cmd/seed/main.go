// Command seed provisions a bootstrap administrator and a handful of demo
// accounts for local development.
package main

import (
	"context"
	"log"
	"time"

	"adminpanel/internal/auth"
	"adminpanel/internal/config"
	"adminpanel/internal/db"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

func main() {
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.User{}, &model.ActivityLog{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	users := repository.NewUserRepository(gormDB)

	seeds := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"Admin", "admin@example.com", "admin123", model.RoleAdmin},
		{"Manager", "manager@example.com", "manager123", model.RoleManager},
		{"Demo User", "user@example.com", "user123", model.RoleUser},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	for _, seed := range seeds {
		if existing, err := users.FindByEmail(ctx, seed.email); err == nil && existing != nil {
			log.Printf("seed: %s already exists, skipping", seed.email)
			continue
		}

		hashed, err := hasher.Hash(seed.password)
		if err != nil {
			log.Fatalf("seed: hash password for %s: %v", seed.email, err)
		}
		user := &model.User{
			Name:         seed.name,
			Email:        seed.email,
			PasswordHash: hashed,
			Role:         seed.role,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("seed: create %s: %v", seed.email, err)
		}
		log.Printf("seed: created %s (%s)", seed.email, seed.role)
		created++
	}

	log.Printf("seed: done, %d account(s) created", created)
}

// seed inserts a development actor for local testing.
// Idempotent: skips the insert if the dev actor already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"signage-control-plane/internal/actor/domain"
	"signage-control-plane/internal/actor/repository"
	"signage-control-plane/internal/config"
	"signage-control-plane/internal/db"
	"signage-control-plane/internal/security"
)

const (
	devActorName  = "dev-admin"
	devCredential = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actors := repository.NewPostgresRepository(database)
	existing, err := actors.GetByName(ctx, devActorName)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: actor %q already exists, nothing to do", devActorName)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devCredential))
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	now := time.Now().UTC()
	a := &domain.Actor{
		ID:             uuid.New().String(),
		Name:           devActorName,
		CredentialHash: hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := actors.Create(ctx, a); err != nil {
		log.Fatalf("seed: create: %v", err)
	}
	log.Printf("seed: created actor %q (id %s), credential %q", devActorName, a.ID, devCredential)
}

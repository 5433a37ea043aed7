// Command seed creates the initial coordinator account so a fresh
// deployment has someone who can sign in and approve requests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/viva-esporte/arena-api/pkg/config"
	"github.com/viva-esporte/arena-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		name     string
	)

	flag.StringVar(&email, "email", "", "Coordinator email")
	flag.StringVar(&password, "password", "", "Coordinator password (min 8 chars)")
	flag.StringVar(&name, "name", "Coordinator", "Coordinator full name")
	flag.Parse()

	if email == "" || len(password) < 8 {
		log.Fatal("usage: seed -email coordinator@example.com -password <min 8 chars> [-name \"Full Name\"]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email); err != nil {
		log.Fatalf("failed to check existing account: %v", err)
	}
	if exists {
		log.Fatalf("account %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
        INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 'COORDINATOR', TRUE, now(), now())`,
		id, email, string(hash), name,
	)
	if err != nil {
		log.Fatalf("failed to insert coordinator: %v", err)
	}

	fmt.Printf("coordinator %s created (id %s)\n", email, id)
}

// Command seed populates a development database with fake users and
// twelve weeks of commitment history. All accounts share the password
// "password123".
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/edconsult/commitdb/config"
	"github.com/edconsult/commitdb/pkg/auth"
	"github.com/edconsult/commitdb/pkg/store"
	"github.com/edconsult/commitdb/pkg/testdata"
)

func main() {
	weeksBack := flag.Int("weeks", 12, "weeks of history to generate")
	perWeek := flag.Int("per-week", 3, "commitments per consultant per week")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️  No .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	genCfg := testdata.DefaultConfig()
	genCfg.WeeksBack = *weeksBack
	genCfg.CommitmentsPerWeek = *perWeek

	hash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatalf("❌ Failed to hash seed password: %v", err)
	}

	ctx := context.Background()
	users := testdata.GenerateUsers(genCfg)
	userRepo := store.NewUserRepo(db)
	for i := range users {
		users[i].PasswordHash = hash
		if err := userRepo.Create(ctx, &users[i]); err != nil {
			log.Fatalf("❌ Failed to create user %s: %v", users[i].Email, err)
		}
	}
	log.Printf("✅ Seeded %d users (password: password123)", len(users))

	commitmentRepo := store.NewCommitmentRepo(db)
	records := testdata.GenerateCommitments(genCfg, users, time.Now())
	for i := range records {
		if err := commitmentRepo.Create(ctx, &records[i]); err != nil {
			log.Fatalf("❌ Failed to create commitment: %v", err)
		}
	}
	log.Printf("✅ Seeded %d commitments across %d weeks", len(records), genCfg.WeeksBack)
}

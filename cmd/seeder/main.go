// cmd/seeder/main.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/socialify/inbox-backend/internal/config"
	"github.com/socialify/inbox-backend/internal/vault"
)

// Seeds two demo tenants with connected accounts and phone numbers. The
// access tokens are encrypted through the same vault the server uses, so a
// seeded database works end to end against a stub provider.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	defer db.Close()

	tokenVault, err := vault.New(cfg.VaultSecret)
	if err != nil {
		log.Fatal("failed to initialize vault:", err)
	}

	tenants := []struct {
		email         string
		fullName      string
		businessName  string
		phoneNumberID string
		phoneNumber   string
	}{
		{"ana@acme.example", "Ana Oliveira", "Acme Corp", "100000000000001", "15550001111"},
		{"bruno@globex.example", "Bruno Costa", "Globex Retail", "100000000000002", "15550002222"},
	}

	for _, seed := range tenants {
		var tenantID int64
		err := db.QueryRow(
			`INSERT INTO tenants (email, full_name, is_active, created_at)
             VALUES ($1, $2, TRUE, $3)
             ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
             RETURNING id`,
			seed.email, seed.fullName, time.Now().UTC(),
		).Scan(&tenantID)
		if err != nil {
			log.Fatalf("failed to seed tenant %s: %v", seed.email, err)
		}

		blob, err := tokenVault.Encrypt(vault.Credential{
			AccessToken:  "demo-access-" + uuid.NewString(),
			RefreshToken: "demo-refresh-" + uuid.NewString(),
		})
		if err != nil {
			log.Fatal("failed to encrypt demo credential:", err)
		}

		var wabaRecordID int64
		wabaID := "waba-" + uuid.NewString()
		err = db.QueryRow(
			`INSERT INTO business_accounts
                (tenant_id, waba_id, business_name, meta_user_id,
                 access_token_encrypted, refresh_token_encrypted,
                 is_active, webhook_configured, connected_at)
             VALUES ($1, $2, $3, $4, $5, $6, TRUE, TRUE, $7)
             RETURNING id`,
			tenantID, wabaID, seed.businessName, "meta-"+uuid.NewString(),
			blob, blob, time.Now().UTC(),
		).Scan(&wabaRecordID)
		if err != nil {
			log.Fatalf("failed to seed business account for %s: %v", seed.email, err)
		}

		_, err = db.Exec(
			`INSERT INTO phone_numbers
                (waba_record_id, phone_number_id, phone_number, display_name, status, is_verified)
             VALUES ($1, $2, $3, $4, 'CONNECTED', TRUE)
             ON CONFLICT (phone_number_id) DO NOTHING`,
			wabaRecordID, seed.phoneNumberID, seed.phoneNumber, seed.businessName,
		)
		if err != nil {
			log.Fatalf("failed to seed phone number for %s: %v", seed.email, err)
		}

		fmt.Printf("Seeded tenant %d (%s) with phone_number_id %s\n", tenantID, seed.email, seed.phoneNumberID)
	}

	fmt.Println("Database seeding completed successfully!")
}

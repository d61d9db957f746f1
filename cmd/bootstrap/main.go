// Command bootstrap promotes an existing account out-of-band. The HTTP API
// cannot create the first SUPER_ADMIN (staff routes require staff), so an
// operator runs this against the database directly:
//
//	bootstrap -email ops@example.com -role SUPER_ADMIN [-activate]
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/receipt-vault/internal/config"
	"github.com/iliyamo/receipt-vault/internal/database"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/repository"
)

func main() {
	email := flag.String("email", "", "email of the account to promote")
	role := flag.String("role", string(model.RoleSuperAdmin), "target role (USER, ADMIN, SUPER_ADMIN)")
	activate := flag.Bool("activate", false, "also grant activation (source=admin)")
	flag.Parse()

	if *email == "" {
		log.Fatal("bootstrap: -email is required")
	}
	target, ok := model.ParseRole(*role)
	if !ok {
		log.Fatalf("bootstrap: invalid role %q", *role)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("bootstrap: database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := users.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("bootstrap: lookup %s: %v", *email, err)
	}

	if u.Role != target {
		if _, err := users.UpdateRole(ctx, u.ID, target); err != nil {
			log.Fatalf("bootstrap: update role: %v", err)
		}
		log.Printf("bootstrap: %s role %s -> %s", u.Email, u.Role, target)
	} else {
		log.Printf("bootstrap: %s already %s", u.Email, target)
	}

	if *activate && !u.IsActivated {
		if err := users.GrantActivation(ctx, u.ID, model.SourceAdmin, time.Now()); err != nil {
			log.Fatalf("bootstrap: grant activation: %v", err)
		}
		log.Printf("bootstrap: %s activated (source=admin)", u.Email)
	}

	// Existing session tokens still carry the old snapshot; the new role
	// takes effect when the user signs in again.
	log.Printf("bootstrap: done; user must re-login for the new role to reach their token")
}

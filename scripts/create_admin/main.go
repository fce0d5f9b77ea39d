package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/creostudios/backend/internal/config"
	"github.com/creostudios/backend/internal/db"
	"github.com/creostudios/backend/internal/repository/sqlite"
	"github.com/creostudios/backend/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// create_admin is the out-of-band provisioning path for the is_admin flag:
// no public API operation can set it. An existing user is promoted; a
// missing one is created verified with the given password.
func main() {
	var (
		email    = flag.String("email", "", "admin email (required)")
		name     = flag.String("name", "Admin", "display name for a newly created admin")
		password = flag.String("password", "", "password for a newly created admin")
	)
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: create_admin -email <email> [-name <name>] [-password <password>]")
		os.Exit(1)
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	repo := sqlite.New(database)

	user, err := repo.GetUserByEmail(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup error: %v\n", err)
		os.Exit(1)
	}

	if user == nil {
		if *password == "" {
			fmt.Fprintln(os.Stderr, "-password is required when the user does not exist yet")
			os.Exit(1)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Hash error: %v\n", err)
			os.Exit(1)
		}
		if _, err := repo.CreateUser(ctx, &models.User{
			Name:         *name,
			Email:        *email,
			PasswordHash: string(hash),
			Verified:     true,
			IsAdmin:      true,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Create error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Admin user %s created.\n", *email)
		return
	}

	if err := repo.SetAdmin(ctx, *email, true); err != nil {
		fmt.Fprintf(os.Stderr, "Promote error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("User %s promoted to admin.\n", *email)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"EstateMarket/config"
	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"
)

func main() {
	email := flag.String("email", "admin@estate.market", "admin email")
	name := flag.String("name", "Administrator", "display name")
	password := flag.String("password", "", "password for a newly created admin (required unless the user exists)")
	flag.Parse()

	cfg, _ := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer client.Disconnect(context.Background())

	users := store.NewMongoUserStore(db.Collection(cfg.Collections.Users))
	normalized := utils.NormalizeEmail(*email)

	existing, err := users.FindByEmail(ctx, normalized)
	switch {
	case err == nil:
		role := models.RoleAdmin
		fraud := false
		promoted, err := users.Update(ctx, existing.ID, store.UserUpdate{Role: &role, Fraud: &fraud})
		if err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("Promoted %s to admin (id %s)\n", promoted.Email, promoted.ID.Hex())
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Fatalf("Failed to look up user: %v", err)
	}

	if len(*password) < 6 {
		log.Fatal("A password of at least 6 characters is required to create a new admin")
	}
	hash, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	admin := models.User{
		Email:     normalized,
		Password:  hash,
		Name:      *name,
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, &admin); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Println("Admin created")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("Name:  %s\n", admin.Name)
	fmt.Printf("ID:    %s\n", admin.ID.Hex())
}

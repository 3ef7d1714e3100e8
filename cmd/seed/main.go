package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"customerhub/internal/database"
	"customerhub/internal/domain/customer"
)

// Seeds a local database with demo customers for frontend development.
func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "seed"})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "customerhub.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	if err := database.Migrate(db, &customer.Customer{}); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	logger.Info("cleaning old data")
	db.Exec("DELETE FROM customers")

	demo := []struct {
		name   string
		email  string
		age    int
		gender string
	}{
		{"Ada Lovelace", "ada@example.com", 36, "FEMALE"},
		{"Alan Turing", "alan@example.com", 41, "MALE"},
		{"Grace Hopper", "grace@example.com", 85, "FEMALE"},
		{"Dennis Ritchie", "dennis@example.com", 70, "MALE"},
		{"Barbara Liskov", "barbara@example.com", 86, "FEMALE"},
	}

	for i, d := range demo {
		hash, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("password%d", i+1)), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hashing failed", "error", err)
		}
		c := customer.Customer{
			Name:         d.name,
			Email:        d.email,
			PasswordHash: string(hash),
			Age:          d.age,
			Gender:       d.gender,
		}
		if err := db.Create(&c).Error; err != nil {
			logger.Fatal("seed insert failed", "email", d.email, "error", err)
		}
		logger.Info("created customer", "id", c.ID, "email", c.Email)
	}

	logger.Info("seed completed", "customers", len(demo))
}

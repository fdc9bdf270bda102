package main

import (
	"flag"
	"log"
	"os"

	"github.com/colearn/backend/internal/auth"
	"github.com/colearn/backend/internal/classrooms"
	"github.com/colearn/backend/internal/db"
	"github.com/colearn/backend/internal/folders"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// seed applies the schema and the role catalog without starting the server.
func main() {
	_ = godotenv.Load(".env.local")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "DATABASE_URL")
	flag.Parse()
	if *dbURL == "" {
		log.Fatal("usage: seed -db <DATABASE_URL>")
	}
	db.Connect(*dbURL, logger.Warn)

	auth.Init()
	folders.Init()
	classrooms.Init()

	roles, err := classrooms.Catalog()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	for _, r := range roles {
		log.Printf("role %-8s %s", r.Name, r.Description)
	}
}

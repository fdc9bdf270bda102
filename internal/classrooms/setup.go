package classrooms

import (
	"log"

	"github.com/colearn/backend/internal/db"
)

// Init expects auth.Init and folders.Init to have run.
func Init() {
	if err := db.EnsureSchema(db.DB, "colearn"); err != nil {
		log.Fatal("[classrooms] ensure schema colearn: ", err)
	}
	if err := db.DB.AutoMigrate(&Role{}, &Classroom{}, &Enrollment{}, &Invitation{}); err != nil {
		log.Fatal("[classrooms] auto-migrate: ", err)
	}

	n, err := SeedRoles(db.DB)
	if err != nil {
		log.Fatal("[classrooms] seed roles: ", err)
	}
	log.Printf("[classrooms] %d roles in catalog", n)
}

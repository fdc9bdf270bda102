package auth

import (
	"log"

	"github.com/colearn/backend/internal/db"
)

const activeSessionsIndex = `CREATE INDEX IF NOT EXISTS sessions_user_active_idx
	ON app_auth.sessions (user_id, expires_at) WHERE NOT is_revoked`

// Init creates the app_auth schema and its tables. It must run before any
// feature whose tables reference app_auth.users.
func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("[auth] ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &Session{}); err != nil {
		log.Fatal("[auth] auto-migrate: ", err)
	}

	if err := db.DB.Exec(activeSessionsIndex).Error; err != nil {
		log.Fatal("[auth] create session index: ", err)
	}
}

package folders

import (
	"log"

	"github.com/colearn/backend/internal/db"
)

const oneRootPerUser = `CREATE UNIQUE INDEX IF NOT EXISTS folders_one_root_idx
	ON colearn.folders (user_id) WHERE is_root`

// Init expects auth.Init to have created app_auth.users.
func Init() {
	if err := db.EnsureSchema(db.DB, "colearn"); err != nil {
		log.Fatal("[folders] ensure schema colearn: ", err)
	}
	if err := db.DB.AutoMigrate(&Folder{}); err != nil {
		log.Fatal("[folders] auto-migrate: ", err)
	}
	if err := db.DB.Exec(oneRootPerUser).Error; err != nil {
		log.Fatal("[folders] create root index: ", err)
	}
}

package db

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the shared pool, checks it with a ping and stores it in DB.
// Any failure is fatal.
func Connect(dsn string, level logger.LogLevel) *gorm.DB {
	if dsn == "" {
		log.Fatal("[db] DATABASE_URL is empty")
	}

	sqlLog := logger.New(log.New(os.Stdout, "[db] ", log.LstdFlags), logger.Config{
		SlowThreshold:             100 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         sqlLog,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatalf("[db] open: %v", err)
	}

	pool, err := conn.DB()
	if err != nil {
		log.Fatalf("[db] pool: %v", err)
	}
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxIdleTime(5 * time.Minute)
	pool.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		log.Fatalf("[db] ping: %v", err)
	}

	DB = conn
	log.Println("[db] connected")
	return conn
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Config holds database configuration
type Config struct {
	Path            string
	BusyTimeout     time.Duration
	MaxConnections  int
	ConnMaxLifetime time.Duration
}

// New opens (and creates, if needed) the SQLite database at cfg.Path
func New(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/dobro.db"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds(),
	)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; keep the pool small
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	} else {
		sqlDB.SetMaxOpenConns(1)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{sqlDB}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// User represents a bot user, upserted on every inbound message
type User struct {
	ID        string
	FirstName string
	LastName  string
	Username  string
	CreatedAt time.Time
}

// Request represents a published volunteering request
type Request struct {
	ID              int64
	UserID          string
	Title           string
	Category        string
	Type            string
	Region          string
	Description     string
	FullDescription string
	Date            string
	Time            *string
	Location        *string
	Requirements    *string
	Reward          string
	Verified        bool
	CreatedAt       time.Time
}

// Response represents a volunteer's reply to a request
type Response struct {
	ID        string
	RequestID int64
	UserID    string
	Message   string
	Status    string
	CreatedAt time.Time
}

// Session is the durable per-user dialogue state row
type Session struct {
	UserID    string
	Action    string
	Step      string
	Data      []byte
	UpdatedAt time.Time
}

// Organization represents a registered organization; one per owner
type Organization struct {
	ID        int64
	OwnerID   string
	Name      string
	Region    string
	Verified  bool
	CreatedAt time.Time
}

// RequestFilter narrows catalog listings
type RequestFilter struct {
	Category string
	Region   string
	Type     string
	Limit    int
	Offset   int
}

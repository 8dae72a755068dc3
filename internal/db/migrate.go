package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	first_name TEXT,
	last_name TEXT,
	username TEXT,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT,
	title TEXT NOT NULL,
	category TEXT,
	type TEXT,
	region TEXT,
	description TEXT,
	full_description TEXT,
	date TEXT,
	time TEXT,
	location TEXT,
	requirements TEXT,
	reward TEXT,
	verified INTEGER DEFAULT 0,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS responses (
	id TEXT PRIMARY KEY,
	request_id INTEGER,
	user_id TEXT,
	message TEXT,
	status TEXT DEFAULT 'pending',
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (request_id) REFERENCES requests(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS user_states (
	user_id TEXT PRIMARY KEY,
	action TEXT,
	step TEXT,
	data TEXT,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS organizations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id TEXT UNIQUE,
	name TEXT NOT NULL,
	region TEXT,
	verified INTEGER DEFAULT 0,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_requests_verified ON requests(verified, created_at);
CREATE INDEX IF NOT EXISTS idx_responses_user ON responses(user_id);
CREATE INDEX IF NOT EXISTS idx_responses_request ON responses(request_id);
`

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

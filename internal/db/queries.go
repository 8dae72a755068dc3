package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// UpsertUser creates or refreshes a user row
func (db *DB) UpsertUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, username)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET first_name = excluded.first_name,
		              last_name = excluded.last_name,
		              username = excluded.username
	`

	if _, err := db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username,
	); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, first_name, last_name, username, created_at
		FROM users
		WHERE id = ?
	`

	user := &User{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Username, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CreateRequest inserts a fully formed request and returns it with its ID
func (db *DB) CreateRequest(ctx context.Context, req *Request) error {
	if req.Reward == "" {
		req.Reward = "бесплатно"
	}
	if req.FullDescription == "" {
		req.FullDescription = req.Description
	}

	query := `
		INSERT INTO requests (
			user_id, title, category, type, region, description,
			full_description, date, time, location, requirements, reward, verified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query,
		req.UserID, req.Title, req.Category, req.Type, req.Region, req.Description,
		req.FullDescription, req.Date, req.Time, req.Location, req.Requirements,
		req.Reward, req.Verified,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetRequest retrieves a request by ID
func (db *DB) GetRequest(ctx context.Context, id int64) (*Request, error) {
	query := `
		SELECT id, user_id, title, category, type, region, description,
		       full_description, date, time, location, requirements, reward,
		       verified, created_at
		FROM requests
		WHERE id = ?
	`

	req := &Request{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.Title, &req.Category, &req.Type, &req.Region,
		&req.Description, &req.FullDescription, &req.Date, &req.Time,
		&req.Location, &req.Requirements, &req.Reward, &req.Verified, &req.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// GetRequests retrieves verified requests, newest first, with optional filters
func (db *DB) GetRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	query := `
		SELECT id, user_id, title, category, type, region, description,
		       full_description, date, time, location, requirements, reward,
		       verified, created_at
		FROM requests
		WHERE verified = 1
	`
	var args []interface{}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Region != "" {
		query += " AND region = ?"
		args = append(args, filter.Region)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// CountRequests returns the number of verified requests
func (db *DB) CountRequests(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE verified = 1",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

// GetUserRequests retrieves all requests owned by a user, newest first
func (db *DB) GetUserRequests(ctx context.Context, userID string) ([]Request, error) {
	query := `
		SELECT id, user_id, title, category, type, region, description,
		       full_description, date, time, location, requirements, reward,
		       verified, created_at
		FROM requests
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user requests: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]Request, error) {
	requests := make([]Request, 0)
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID, &req.UserID, &req.Title, &req.Category, &req.Type, &req.Region,
			&req.Description, &req.FullDescription, &req.Date, &req.Time,
			&req.Location, &req.Requirements, &req.Reward, &req.Verified, &req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// CreateResponse records a volunteer's reply to a request
func (db *DB) CreateResponse(ctx context.Context, resp *Response) error {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.Status == "" {
		resp.Status = "pending"
	}

	query := `
		INSERT INTO responses (id, request_id, user_id, message, status)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := db.ExecContext(ctx, query,
		resp.ID, resp.RequestID, resp.UserID, resp.Message, resp.Status,
	); err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

// GetUserResponses retrieves all responses sent by a user, newest first
func (db *DB) GetUserResponses(ctx context.Context, userID string) ([]Response, error) {
	query := `
		SELECT id, request_id, user_id, message, status, created_at
		FROM responses
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user responses: %w", err)
	}
	defer rows.Close()

	return scanResponses(rows)
}

// GetRequestResponses retrieves all responses to a request
func (db *DB) GetRequestResponses(ctx context.Context, requestID int64) ([]Response, error) {
	query := `
		SELECT id, request_id, user_id, message, status, created_at
		FROM responses
		WHERE request_id = ?
		ORDER BY created_at ASC
	`

	rows, err := db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query request responses: %w", err)
	}
	defer rows.Close()

	return scanResponses(rows)
}

func scanResponses(rows *sql.Rows) ([]Response, error) {
	responses := make([]Response, 0)
	for rows.Next() {
		var resp Response
		if err := rows.Scan(
			&resp.ID, &resp.RequestID, &resp.UserID, &resp.Message,
			&resp.Status, &resp.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return responses, nil
}

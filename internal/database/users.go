package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AddUser creates a user with a bcrypt-hashed password. Adding a name that
// already exists is a no-op and reports created=false.
func (d *Database) AddUser(ctx context.Context, name, password string) (created bool, err error) {
	start := time.Now()
	defer func() { recordQuery("add_user", start, err) }()

	if name == "" || password == "" {
		return false, errors.New("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, string(hash))
	if err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// RemoveUser deletes a user by name, or returns ErrNotFound.
func (d *Database) RemoveUser(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { recordQuery("remove_user", start, err) }()

	res, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Authenticate reports whether name and password match a stored user.
func (d *Database) Authenticate(ctx context.Context, name, password string) (ok bool, err error) {
	start := time.Now()
	defer func() { recordQuery("authenticate", start, err) }()

	var u User
	err = d.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash FROM users WHERE name = ?`, name,
	).Scan(&u.ID, &u.Name, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// HasUsers reports whether any user exists.
func (d *Database) HasUsers(ctx context.Context) (has bool, err error) {
	start := time.Now()
	defer func() { recordQuery("has_users", start, err) }()

	var count int
	if err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GoogleSub    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

const userColumns = `id, email, name, password_hash, google_sub, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.GoogleSub, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return u, nil
}

// CreateUser inserts u and returns it with its id set. Emails are
// stored lowercased.
func (d *DB) CreateUser(ctx context.Context, u User) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO users (email, name, password_hash, google_sub, created_at)
VALUES (?, ?, ?, ?, ?);`,
		u.Email, u.Name, u.PasswordHash, u.GoogleSub, u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, fmt.Errorf("%w: email %s", ErrDuplicate, u.Email)
	}
	u.ID, _ = res.LastInsertId()
	return u, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := d.Pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1;`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (d *DB) GetUserByGoogleSub(ctx context.Context, sub string) (User, error) {
	row := d.Pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_sub = ? AND google_sub != '' LIMIT 1;`, sub)
	return scanUser(row)
}

// UpsertGoogleUser finds the user by Google subject, then by email
// (linking the subject to an existing password account), and creates
// one otherwise.
func (d *DB) UpsertGoogleUser(ctx context.Context, sub, email, name string) (User, error) {
	if u, err := d.GetUserByGoogleSub(ctx, sub); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	u, err := d.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := d.Pool.ExecContext(ctx,
			`UPDATE users SET google_sub = ? WHERE id = ?;`, sub, u.ID); err != nil {
			return User{}, fmt.Errorf("link google account: %w", err)
		}
		u.GoogleSub = sub
		return u, nil
	case errors.Is(err, ErrNotFound):
		return d.CreateUser(ctx, User{Email: email, Name: name, GoogleSub: sub})
	default:
		return User{}, err
	}
}

// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // database/sql driver

	"github.com/tomtom215/rpoengine/internal/logging"
	"github.com/tomtom215/rpoengine/internal/models"
)

const schemaTimeout = 30 * time.Second

const createUsersTable = `CREATE TABLE IF NOT EXISTS users (
	username       VARCHAR PRIMARY KEY,
	role           VARCHAR NOT NULL DEFAULT 'entrepreneur',
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	assigned_coach VARCHAR,
	grade          VARCHAR
)`

var _ Resolver = (*DuckDB)(nil)

// DuckDB is a Resolver backed by a DuckDB users table.
type DuckDB struct {
	conn     *sql.DB
	readOnly bool
}

// Open opens the registry database at path. ":memory:" opens a private
// in-memory database. A read-only registry never creates the schema, so
// several processes can share one file.
func Open(path string, readOnly bool) (*DuckDB, error) {
	if path != ":memory:" && !readOnly {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create registry directory %s: %w", dir, err)
			}
		}
	}

	mode := "read_write"
	if readOnly {
		mode = "read_only"
	}
	connStr := fmt.Sprintf("%s?access_mode=%s&autoinstall_known_extensions=false&autoload_known_extensions=false", path, mode)
	if path == ":memory:" {
		connStr = ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false"
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	// An in-memory database lives as long as its single connection.
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
	}

	db := &DuckDB{conn: conn, readOnly: readOnly}
	if !readOnly {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if _, err := conn.ExecContext(ctx, createUsersTable); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to create users table: %w", err)
		}
	}
	logging.Info().Str("path", path).Bool("read_only", readOnly).Msg("Registry opened")
	return db, nil
}

// Close closes the database.
func (db *DuckDB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DuckDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Upsert inserts or replaces registry rows.
func (db *DuckDB) Upsert(ctx context.Context, users ...models.User) error {
	if db.readOnly {
		return errors.New("registry is read-only")
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO users (username, role, is_active, assigned_coach, grade)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			role = excluded.role,
			is_active = excluded.is_active,
			assigned_coach = excluded.assigned_coach,
			grade = excluded.grade`
	for _, u := range users {
		if err := validateUser(u); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q,
			u.Username, string(normalizeRole(string(u.Role))), u.IsActive,
			nullString(u.AssignedCoach), nullString(u.Grade),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", u.Username, err)
		}
	}
	return tx.Commit()
}

// RoleOf implements Resolver.
func (db *DuckDB) RoleOf(ctx context.Context, username string) (models.Role, error) {
	var role string
	err := db.conn.QueryRowContext(ctx, `SELECT role FROM users WHERE username = ?`, username).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleEntrepreneur, nil
	}
	if err != nil {
		return "", fmt.Errorf("role of %s: %w", username, err)
	}
	return normalizeRole(role), nil
}

// CoachOf implements Resolver.
func (db *DuckDB) CoachOf(ctx context.Context, username string) (string, bool, error) {
	var coach sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT assigned_coach FROM users
		 WHERE username = ? AND lower(role) = 'entrepreneur' AND is_active`, username).Scan(&coach)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("coach of %s: %w", username, err)
	}
	if !coach.Valid || coach.String == "" {
		return "", false, nil
	}
	return coach.String, true, nil
}

// ActiveCoaches implements Resolver.
func (db *DuckDB) ActiveCoaches(ctx context.Context) ([]string, error) {
	return db.usernames(ctx, `SELECT username FROM users WHERE lower(role) = 'coach' AND is_active ORDER BY username`)
}

// ActiveEntrepreneurs implements Resolver.
func (db *DuckDB) ActiveEntrepreneurs(ctx context.Context) ([]string, error) {
	return db.usernames(ctx, `SELECT username FROM users WHERE lower(role) = 'entrepreneur' AND is_active ORDER BY username`)
}

// EntrepreneursOf implements Resolver.
func (db *DuckDB) EntrepreneursOf(ctx context.Context, coach string) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username, role, is_active, assigned_coach, grade FROM users
		 WHERE assigned_coach = ? AND lower(role) = 'entrepreneur' AND is_active
		 ORDER BY username`, coach)
	if err != nil {
		return nil, fmt.Errorf("entrepreneurs of %s: %w", coach, err)
	}
	defer closeQuietly(rows)

	var users []models.User
	for rows.Next() {
		var (
			u        models.User
			role     string
			coachCol sql.NullString
			grade    sql.NullString
		)
		if err := rows.Scan(&u.Username, &role, &u.IsActive, &coachCol, &grade); err != nil {
			return nil, fmt.Errorf("scan entrepreneur: %w", err)
		}
		u.Role = normalizeRole(role)
		u.AssignedCoach = coachCol.String
		u.Grade = grade.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DuckDB) usernames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer closeQuietly(rows)

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type closer interface {
	Close() error
}

func closeQuietly(c closer) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("registry close")
	}
}

package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PgMessageArchive struct {
	conn *sql.DB
}

func NewPgMessageArchive(dsn string) (*PgMessageArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PgMessageArchive{conn: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (a *PgMessageArchive) SaveMessage(msg Message) error {
	_, err := a.conn.Exec(
		`INSERT INTO messages (id, content, sender_id, username, room, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		msg.Id, msg.Content, msg.SenderId, msg.Username, msg.Room, msg.CreatedAt,
	)
	return err
}

func (a *PgMessageArchive) Ping() error {
	return a.conn.Ping()
}

func (a *PgMessageArchive) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

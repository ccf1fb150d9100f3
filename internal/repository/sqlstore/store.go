// Package sqlstore implements the repositories on top of database/sql. Engine
// specifics (DDL and driver error codes) are supplied by a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"taskmanager/internal/repository"
)

// Dialect describes what differs between the supported SQL engines.
type Dialect struct {
	Name   string
	Schema []string

	IsUniqueViolation     func(err error) bool
	IsForeignKeyViolation func(err error) bool
}

// Store owns the *sql.DB shared by the user and task repositories.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) uniqueViolation(err error) bool {
	return s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err)
}

func (s *Store) foreignKeyViolation(err error) bool {
	return s.dialect.IsForeignKeyViolation != nil && s.dialect.IsForeignKeyViolation(err)
}

var _ repository.Store = (*Store)(nil)

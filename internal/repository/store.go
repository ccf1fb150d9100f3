package repository

import "context"

// Store is the schema-level handle shared by the repositories of one database.
type Store interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"taskmanager/internal/repository/sqlstore"
)

const (
	errDuplicateEntry     = 1062
	errNoReferencedRow    = 1216
	errNoReferencedRowTwo = 1452
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(50) NOT NULL UNIQUE,
	email VARCHAR(100) NOT NULL UNIQUE,
	password VARCHAR(100) NOT NULL,
	created_at DATETIME(6) NOT NULL
) ENGINE=InnoDB
`

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	title VARCHAR(200) NOT NULL,
	description TEXT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	INDEX idx_user_id (user_id),
	INDEX idx_completed (completed)
) ENGINE=InnoDB
`

// Dialect is the MySQL flavour of the shared SQL repositories.
var Dialect = sqlstore.Dialect{
	Name:   "mysql",
	Schema: []string{createUsersTable, createTasksTable},
	IsUniqueViolation: func(err error) bool {
		return hasNumber(err, errDuplicateEntry)
	},
	IsForeignKeyViolation: func(err error) bool {
		return hasNumber(err, errNoReferencedRow, errNoReferencedRowTwo)
	},
}

// Options carries the connection parameters for a MySQL server.
type Options struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders the options as a go-sql-driver DSN. Times are read and written in UTC.
func (o Options) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// report matched rather than changed rows so a no-op update is not a miss
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(opts Options) (*sqlstore.Store, error) {
	db, err := sql.Open("mysql", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}

func hasNumber(err error, numbers ...uint16) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	for _, n := range numbers {
		if mysqlErr.Number == n {
			return true
		}
	}
	return false
}

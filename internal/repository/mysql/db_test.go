package mysql

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDialectClassifiesDriverErrors(t *testing.T) {
	dup := &mysql.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry 'alice' for key 'username'"}
	fk := &mysql.MySQLError{Number: errNoReferencedRowTwo, Message: "Cannot add or update a child row"}
	other := &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}

	assert.True(t, Dialect.IsUniqueViolation(dup))
	assert.True(t, Dialect.IsUniqueViolation(fmt.Errorf("insert user: %w", dup)))
	assert.False(t, Dialect.IsUniqueViolation(fk))

	assert.True(t, Dialect.IsForeignKeyViolation(fk))
	assert.False(t, Dialect.IsForeignKeyViolation(dup))

	assert.False(t, Dialect.IsUniqueViolation(other))
	assert.False(t, Dialect.IsForeignKeyViolation(errors.New("1452")))
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{Host: "localhost", Port: 3307, User: "user", Password: "password", Name: "db"}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "user:password@tcp(localhost:3307)/db?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")

	cfg, err := mysql.ParseDSN(dsn)
	assert.NoError(t, err)
	assert.Equal(t, "db", cfg.DBName)
}

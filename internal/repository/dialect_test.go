package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1146}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: inventory.item_id (2067)")))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
}

func TestApplySchema_UnknownDialect(t *testing.T) {
	err := ApplySchema(t.Context(), newSQLite(t), Dialect("oracle"))
	assert.Error(t, err)
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, d := range []Dialect{DialectMySQL, DialectSQLite, DialectPostgres, DialectClickHouse} {
		raw, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
		if assert.NoError(t, err, d) {
			assert.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS", d)
		}
	}
}

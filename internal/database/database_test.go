package database

import (
	"testing"

	"github.com/princeprakhar/yamdb-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		isSQLite bool
	}{
		{":memory:", "file::memory:?_foreign_keys=on", true},
		{"sqlite://yamdb.db", "yamdb.db?_foreign_keys=on", true},
		{"sqlite:file:test.db?cache=shared", "file:test.db?cache=shared&_foreign_keys=on", true},
		{"sqlite://x.db?_foreign_keys=off", "x.db?_foreign_keys=off", true},
		{"postgres://u:p@localhost/yamdb", "", false},
	}
	for _, tt := range tests {
		got, ok := sqliteDSN(tt.in)
		assert.Equal(t, tt.isSQLite, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInitMigratesSchema(t *testing.T) {
	db, err := InitSilent(":memory:")
	require.NoError(t, err)

	for _, model := range []interface{}{
		&models.User{}, &models.Category{}, &models.Genre{},
		&models.Title{}, &models.Review{}, &models.Comment{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasTable("title_genres"))
}

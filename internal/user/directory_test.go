package user

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/system/database/provider"
)

func TestSQLDirectory_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := NewSQLDirectory(provider.NewDBClient(sqlx.NewDb(db, "sqlmock"), "mysql"))

	mock.ExpectQuery(regexp.QuoteMeta(QueryCheckUserExists.Query)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(QueryCheckUserExists.Query)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(int64(0)))

	ok, err := dir.Exists(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryDirectory(t *testing.T) {
	dir := NewMemoryDirectory(5)
	dir.Add(6)

	for id, want := range map[int64]bool{5: true, 6: true, 7: false} {
		ok, err := dir.Exists(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
}

package provider

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbmodel "github.com/wso2/financial-recommendation-api/internal/system/database/model"
)

var testQuery = dbmodel.DBQuery{
	ID:    "TEST_SELECT",
	Query: "SELECT USER_ID, NAME FROM USERS WHERE USER_ID = ?",
}

func newMockClient(t *testing.T, dbType string) (DBClientInterface, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDBClient(sqlx.NewDb(db, "sqlmock"), dbType), mock
}

func TestQuery_NormalizesColumnsAndBytes(t *testing.T) {
	client, mock := newMockClient(t, dbmodel.DBTypePostgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT USER_ID, NAME FROM USERS WHERE USER_ID = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name"}).AddRow(int64(7), []byte("ada")))

	rows, err := client.Query(context.Background(), testQuery, int64(7))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].Int64("USER_ID"))
	assert.Equal(t, "ada", rows[0].String("NAME"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	client, mock := newMockClient(t, dbmodel.DBTypeMySQL)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE USERS").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := client.WithTx(context.Background(), func(tx Querier) error {
		_, err := tx.Execute(context.Background(), dbmodel.DBQuery{ID: "U", Query: "UPDATE USERS SET NAME = ?"}, "x")
		return err
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Commits(t *testing.T) {
	client, mock := newMockClient(t, dbmodel.DBTypeMySQL)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE USERS").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := client.WithTx(context.Background(), func(tx Querier) error {
		n, err := tx.Execute(context.Background(), dbmodel.DBQuery{ID: "U", Query: "UPDATE USERS SET NAME = ?"}, "x")
		assert.Equal(t, int64(1), n)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowAccessors(t *testing.T) {
	row := Row{"A": int64(1), "B": "true", "C": nil, "D": "text"}
	assert.True(t, row.Bool("A"))
	assert.True(t, row.Bool("B"))
	assert.Nil(t, row.NullInt64("C"))
	assert.Nil(t, row.NullString("C"))
	assert.Equal(t, "text", *row.NullString("D"))
	assert.Equal(t, int64(0), row.Int64("missing"))
}

/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */


// Package provider provides the query client used by all stores.
package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	dbmodel "github.com/wso2/financial-recommendation-api/internal/system/database/model"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
)

// Row is a single result row keyed by upper-cased column name.
type Row map[string]interface{}

// Querier runs DBQuery objects against a connection or a transaction.
type Querier interface {
	Query(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) ([]Row, error)
	Execute(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) (int64, error)
}

// DBClientInterface is the database client handed to stores.
type DBClientInterface interface {
	Querier
	// WithTx runs fn inside a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Querier) error) error
	DBType() string
}

type execer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

type dbClient struct {
	db     *sqlx.DB
	dbType string
}

// NewDBClient creates a client for the given connection and database type.
func NewDBClient(db *sqlx.DB, dbType string) DBClientInterface {
	return &dbClient{db: db, dbType: dbType}
}

func (c *dbClient) DBType() string {
	return c.dbType
}

func (c *dbClient) Query(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) ([]Row, error) {
	return runQuery(ctx, c.db, c.dbType, query, args...)
}

func (c *dbClient) Execute(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	return runExec(ctx, c.db, c.dbType, query, args...)
}

func (c *dbClient) WithTx(ctx context.Context, fn func(tx Querier) error) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))

	tx, err := c.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txClient{tx: tx, dbType: c.dbType}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to rollback transaction", log.Error(rbErr))
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txClient struct {
	tx     *sqlx.Tx
	dbType string
}

func (t *txClient) Query(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) ([]Row, error) {
	return runQuery(ctx, t.tx, t.dbType, query, args...)
}

func (t *txClient) Execute(ctx context.Context, query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	return runExec(ctx, t.tx, t.dbType, query, args...)
}

func runQuery(ctx context.Context, db execer, dbType string, query dbmodel.DBQuery, args ...interface{}) ([]Row, error) {
	rows, err := db.QueryxContext(ctx, query.GetQuery(dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	defer rows.Close()

	results := make([]Row, 0)
	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("query %s scan failed: %w", query.GetID(), err)
		}
		row := make(Row, len(raw))
		for k, v := range raw {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[strings.ToUpper(k)] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s iteration failed: %w", query.GetID(), err)
	}
	return results, nil
}

func runExec(ctx context.Context, db execer, dbType string, query dbmodel.DBQuery, args ...interface{}) (int64, error) {
	result, err := db.ExecContext(ctx, query.GetQuery(dbType), args...)
	if err != nil {
		return 0, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("query %s rows affected: %w", query.GetID(), err)
	}
	return affected, nil
}

// Package user provides read access to the externally managed user table.
package user

import (
	"context"
	"sync"

	"github.com/wso2/financial-recommendation-api/internal/system/database/provider"
	dbmodel "github.com/wso2/financial-recommendation-api/internal/system/database/model"
)

// QueryCheckUserExists is owned by the user CRUD service; this service only reads it.
var QueryCheckUserExists = dbmodel.DBQuery{
	ID:    "CHECK_USER_EXISTS",
	Query: "SELECT COUNT(*) AS COUNT FROM USERS WHERE USER_ID = ?",
}

// Directory answers whether a user id is known.
type Directory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type sqlDirectory struct {
	dbClient provider.DBClientInterface
}

// NewSQLDirectory creates a directory backed by the USERS table.
func NewSQLDirectory(dbClient provider.DBClientInterface) Directory {
	return &sqlDirectory{dbClient: dbClient}
}

func (d *sqlDirectory) Exists(ctx context.Context, userID int64) (bool, error) {
	rows, err := d.dbClient.Query(ctx, QueryCheckUserExists, userID)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return rows[0].Int64("COUNT") > 0, nil
}

// MemoryDirectory is an in-process directory used with the memory database type.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

// NewMemoryDirectory creates a directory seeded with the given user ids.
func NewMemoryDirectory(userIDs ...int64) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[int64]struct{}, len(userIDs))}
	for _, id := range userIDs {
		d.users[id] = struct{}{}
	}
	return d
}

// Add registers a user id.
func (d *MemoryDirectory) Add(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = struct{}{}
}

func (d *MemoryDirectory) Exists(_ context.Context, userID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}

package consent

import (
	"context"
	"sync"

	"github.com/wso2/financial-recommendation-api/internal/consent/model"
	dbmodel "github.com/wso2/financial-recommendation-api/internal/system/database/model"
	"github.com/wso2/financial-recommendation-api/internal/system/database/provider"
)

const consentColumns = "USER_ID, CONSENT_KIND, GRANTED, GRANTED_TIME, REVOKED_TIME, UPDATED_TIME"

// DBQuery objects for all consent operations
var (
	QueryGrantConsent = dbmodel.DBQuery{
		ID: "GRANT_CONSENT",
		Query: "INSERT INTO CONSENT_RECORD (" + consentColumns + ") VALUES (?, ?, TRUE, ?, NULL, ?) " +
			"ON DUPLICATE KEY UPDATE GRANTED = TRUE, GRANTED_TIME = VALUES(GRANTED_TIME), UPDATED_TIME = VALUES(UPDATED_TIME)",
		PostgresQuery: "INSERT INTO CONSENT_RECORD (" + consentColumns + ") VALUES (?, ?, TRUE, ?, NULL, ?) " +
			"ON CONFLICT (USER_ID, CONSENT_KIND) DO UPDATE SET GRANTED = TRUE, " +
			"GRANTED_TIME = EXCLUDED.GRANTED_TIME, UPDATED_TIME = EXCLUDED.UPDATED_TIME",
	}

	QueryRevokeConsent = dbmodel.DBQuery{
		ID: "REVOKE_CONSENT",
		Query: "INSERT INTO CONSENT_RECORD (" + consentColumns + ") VALUES (?, ?, FALSE, NULL, ?, ?) " +
			"ON DUPLICATE KEY UPDATE GRANTED = FALSE, REVOKED_TIME = VALUES(REVOKED_TIME), UPDATED_TIME = VALUES(UPDATED_TIME)",
		PostgresQuery: "INSERT INTO CONSENT_RECORD (" + consentColumns + ") VALUES (?, ?, FALSE, NULL, ?, ?) " +
			"ON CONFLICT (USER_ID, CONSENT_KIND) DO UPDATE SET GRANTED = FALSE, " +
			"REVOKED_TIME = EXCLUDED.REVOKED_TIME, UPDATED_TIME = EXCLUDED.UPDATED_TIME",
	}

	QueryGetConsent = dbmodel.DBQuery{
		ID:    "GET_CONSENT",
		Query: "SELECT " + consentColumns + " FROM CONSENT_RECORD WHERE USER_ID = ? AND CONSENT_KIND = ?",
	}

	QueryListConsentsByUser = dbmodel.DBQuery{
		ID:    "LIST_CONSENTS_BY_USER",
		Query: "SELECT " + consentColumns + " FROM CONSENT_RECORD WHERE USER_ID = ? ORDER BY CONSENT_KIND",
	}
)

// ConsentStore persists consent records. Records are never deleted.
type ConsentStore interface {
	Grant(ctx context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error)
	Revoke(ctx context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error)
	// Get returns nil when no record exists for the pair.
	Get(ctx context.Context, userID int64, kind model.Kind) (*model.ConsentRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]model.ConsentRecord, error)
}

type store struct {
	dbClient provider.DBClientInterface
}

// NewConsentStore creates a SQL-backed consent store.
func NewConsentStore(dbClient provider.DBClientInterface) ConsentStore {
	return &store{dbClient: dbClient}
}

func (s *store) Grant(ctx context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error) {
	return s.write(ctx, QueryGrantConsent, userID, kind, now)
}

func (s *store) Revoke(ctx context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error) {
	return s.write(ctx, QueryRevokeConsent, userID, kind, now)
}

func (s *store) write(ctx context.Context, query dbmodel.DBQuery, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error) {
	var record *model.ConsentRecord
	err := s.dbClient.WithTx(ctx, func(tx provider.Querier) error {
		if _, err := tx.Execute(ctx, query, userID, string(kind), now, now); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, QueryGetConsent, userID, string(kind))
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			record = mapToConsentRecord(rows[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *store) Get(ctx context.Context, userID int64, kind model.Kind) (*model.ConsentRecord, error) {
	rows, err := s.dbClient.Query(ctx, QueryGetConsent, userID, string(kind))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToConsentRecord(rows[0]), nil
}

func (s *store) ListByUser(ctx context.Context, userID int64) ([]model.ConsentRecord, error) {
	rows, err := s.dbClient.Query(ctx, QueryListConsentsByUser, userID)
	if err != nil {
		return nil, err
	}
	records := make([]model.ConsentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *mapToConsentRecord(row))
	}
	return records, nil
}

// mapToConsentRecord converts a database row to a ConsentRecord
func mapToConsentRecord(row provider.Row) *model.ConsentRecord {
	return &model.ConsentRecord{
		UserID:    row.Int64("USER_ID"),
		Kind:      model.Kind(row.String("CONSENT_KIND")),
		Granted:   row.Bool("GRANTED"),
		GrantedAt: row.NullInt64("GRANTED_TIME"),
		RevokedAt: row.NullInt64("REVOKED_TIME"),
		UpdatedAt: row.Int64("UPDATED_TIME"),
	}
}

type recordKey struct {
	userID int64
	kind   model.Kind
}

// memoryStore keeps consent records in process memory.
type memoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]model.ConsentRecord
}

// NewMemoryConsentStore creates an in-process consent store.
func NewMemoryConsentStore() ConsentStore {
	return &memoryStore{records: make(map[recordKey]model.ConsentRecord)}
}

func (m *memoryStore) Grant(_ context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{userID, kind}
	r := m.records[key]
	r.UserID, r.Kind, r.Granted, r.UpdatedAt = userID, kind, true, now
	r.GrantedAt = &now
	m.records[key] = r
	return &r, nil
}

func (m *memoryStore) Revoke(_ context.Context, userID int64, kind model.Kind, now int64) (*model.ConsentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{userID, kind}
	r := m.records[key]
	r.UserID, r.Kind, r.Granted, r.UpdatedAt = userID, kind, false, now
	r.RevokedAt = &now
	m.records[key] = r
	return &r, nil
}

func (m *memoryStore) Get(_ context.Context, userID int64, kind model.Kind) (*model.ConsentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[recordKey{userID, kind}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID int64) ([]model.ConsentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ConsentRecord, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		if r, ok := m.records[recordKey{userID, kind}]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"idregistry/internal/identity/models"
	"idregistry/internal/identity/traits"
	"idregistry/pkg/platform/sentinel"
)

// Postgres persists credential records in PostgreSQL. Traits are stored as
// a text[] column in assertion order, so the ordered-set invariant survives
// a round trip.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the store expects. Applied by deployments and by the
// integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    id              BIGINT PRIMARY KEY,
    owner_address   TEXT NOT NULL,
    metadata_uri    TEXT NOT NULL,
    minted_at       TIMESTAMPTZ NOT NULL,
    last_issued_at  TIMESTAMPTZ NOT NULL,
    subject_type    SMALLINT NOT NULL,
    citizenship     INTEGER NOT NULL,
    sanctions_match INTEGER,
    traits          TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS credentials_owner_idx ON credentials (owner_address);
`

// Health reports whether the database connection is usable.
func (s *Postgres) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Postgres) Create(ctx context.Context, credential *models.Credential) error {
	const query = `
        INSERT INTO credentials
            (id, owner_address, metadata_uri, minted_at, last_issued_at,
             subject_type, citizenship, sanctions_match, traits)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		int64(credential.ID),
		string(credential.Owner),
		credential.MetadataURI,
		credential.MintedAt,
		credential.LastIssuedAt,
		int16(credential.SubjectType),
		int32(credential.Citizenship),
		nullJurisdiction(credential.SanctionsMatch),
		pq.Array(credential.Traits.List()),
	)
	if err != nil {
		return fmt.Errorf("create credential %d: %w", credential.ID, err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, id uint64) (*models.Credential, error) {
	const query = `
        SELECT id, owner_address, metadata_uri, minted_at, last_issued_at,
               subject_type, citizenship, sanctions_match, traits
        FROM credentials WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, int64(id))

	var (
		credential models.Credential
		rowID      int64
		owner      string
		subject    int16
		citizen    int32
		match      sql.NullInt32
		traitList  pq.StringArray
	)
	err := row.Scan(&rowID, &owner, &credential.MetadataURI,
		&credential.MintedAt, &credential.LastIssuedAt,
		&subject, &citizen, &match, &traitList)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential %d: %w", id, err)
	}

	credential.ID = uint64(rowID)
	credential.Owner = models.Address(owner)
	credential.SubjectType = models.SubjectType(subject)
	credential.Citizenship = uint16(citizen)
	if match.Valid {
		jurisdiction := uint16(match.Int32)
		credential.SanctionsMatch = &jurisdiction
	}
	credential.Traits = traits.New(traitList...)
	return &credential, nil
}

func (s *Postgres) Update(ctx context.Context, credential *models.Credential) error {
	const query = `
        UPDATE credentials SET
            owner_address = $2, metadata_uri = $3, minted_at = $4,
            last_issued_at = $5, subject_type = $6, citizenship = $7,
            sanctions_match = $8, traits = $9
        WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		int64(credential.ID),
		string(credential.Owner),
		credential.MetadataURI,
		credential.MintedAt,
		credential.LastIssuedAt,
		int16(credential.SubjectType),
		int32(credential.Citizenship),
		nullJurisdiction(credential.SanctionsMatch),
		pq.Array(credential.Traits.List()),
	)
	if err != nil {
		return fmt.Errorf("update credential %d: %w", credential.ID, err)
	}
	return requireRow(result, credential.ID)
}

func (s *Postgres) Delete(ctx context.Context, id uint64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete credential %d: %w", id, err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id uint64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for credential %d: %w", id, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullJurisdiction(match *uint16) sql.NullInt32 {
	if match == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*match), Valid: true}
}

// Package postgresclientrepo provides a PostgreSQL-backed client
// repository for deployments where registered clients outlive the
// process.
package postgresclientrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-oauth2-provider/clients"
)

var _ clients.Repo = (*PostgresClientRepo)(nil)

type PostgresClientRepo struct {
	db *sql.DB
}

// New opens a connection pool, verifies connectivity, and bootstraps the
// schema.
func New(connString string) (*PostgresClientRepo, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errors.Wrap(err, "[postgresclientrepo.New] sql.Open")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "[postgresclientrepo.New] db.Ping")
	}

	repo := &PostgresClientRepo{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, errors.Wrap(err, "[postgresclientrepo.New] initSchema")
	}
	return repo, nil
}

func (r *PostgresClientRepo) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS oauth_clients (
		client_id VARCHAR(255) PRIMARY KEY,
		secret_hash TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		resource_ids TEXT[] NOT NULL DEFAULT '{}',
		grant_types TEXT[] NOT NULL DEFAULT '{}',
		authorities TEXT[] NOT NULL DEFAULT '{}',
		scopes TEXT[] NOT NULL DEFAULT '{}',
		redirect_uris TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	_, err := r.db.Exec(query)
	return err
}

func (r *PostgresClientRepo) Upsert(ctx context.Context, clientData *clients.Client) error {
	query := `
		INSERT INTO oauth_clients
			(client_id, secret_hash, description, resource_ids, grant_types, authorities, scopes, redirect_uris, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (client_id)
		DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			description = EXCLUDED.description,
			resource_ids = EXCLUDED.resource_ids,
			grant_types = EXCLUDED.grant_types,
			authorities = EXCLUDED.authorities,
			scopes = EXCLUDED.scopes,
			redirect_uris = EXCLUDED.redirect_uris,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		clientData.ID,
		clientData.SecretHash,
		clientData.Description,
		pq.Array(clientData.ResourceIDs),
		pq.Array(clientData.AuthorizedGrantTypes),
		pq.Array(clientData.Authorities),
		pq.Array(clientData.Scopes),
		pq.Array(clientData.RedirectURIs),
	)
	return errors.Wrap(err, "[PostgresClientRepo.Upsert] exec")
}

func (r *PostgresClientRepo) Delete(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_clients WHERE client_id = $1`, clientID)
	return errors.Wrap(err, "[PostgresClientRepo.Delete] exec")
}

func (r *PostgresClientRepo) Get(ctx context.Context, clientID string) (*clients.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT client_id, secret_hash, description, resource_ids, grant_types, authorities, scopes, redirect_uris
		FROM oauth_clients WHERE client_id = $1`, clientID)
	return scanClient(row)
}

func (r *PostgresClientRepo) List(ctx context.Context, offset, limit int) ([]*clients.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT client_id, secret_hash, description, resource_ids, grant_types, authorities, scopes, redirect_uris
		FROM oauth_clients ORDER BY client_id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresClientRepo.List] query")
	}
	defer rows.Close()

	var out []*clients.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (r *PostgresClientRepo) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*clients.Client, error) {
	var c clients.Client
	err := row.Scan(
		&c.ID,
		&c.SecretHash,
		&c.Description,
		pq.Array(&c.ResourceIDs),
		pq.Array(&c.AuthorizedGrantTypes),
		pq.Array(&c.Authorities),
		pq.Array(&c.Scopes),
		pq.Array(&c.RedirectURIs),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[postgresclientrepo] scan")
	}
	return &c, nil
}

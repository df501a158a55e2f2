package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// PostgresStore keeps the knowledge base in PostgreSQL for deployments where
// multiple healing hosts share one history. Expected schema:
//
//	CREATE TABLE knowledge_entries (
//	    id                    BIGSERIAL PRIMARY KEY,
//	    issue_signature       TEXT NOT NULL,
//	    fix_description       TEXT NOT NULL,
//	    outcome               TEXT NOT NULL,
//	    diff_percentage_after DOUBLE PRECISION NOT NULL,
//	    created_at            TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX knowledge_entries_signature_idx ON knowledge_entries (issue_signature);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Append inserts one entry. Rows are never updated or deleted.
func (s *PostgresStore) Append(ctx context.Context, entry types.KnowledgeBaseEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO knowledge_entries (issue_signature, fix_description, outcome, diff_percentage_after, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.IssueSignature, entry.FixDescription, string(entry.Outcome), entry.DiffPercentageAfter, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return nil
}

// QueryBySignature returns all entries for a signature, oldest first.
func (s *PostgresStore) QueryBySignature(ctx context.Context, signature string) ([]types.KnowledgeBaseEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT issue_signature, fix_description, outcome, diff_percentage_after, created_at
		 FROM knowledge_entries WHERE issue_signature = $1 ORDER BY created_at ASC, id ASC`,
		signature,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []types.KnowledgeBaseEntry
	for rows.Next() {
		var entry types.KnowledgeBaseEntry
		var outcome string
		if err := rows.Scan(&entry.IssueSignature, &entry.FixDescription, &outcome, &entry.DiffPercentageAfter, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entry.Outcome = types.Outcome(outcome)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read knowledge entries: %w", err)
	}
	return entries, nil
}

// Len counts all entries.
func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

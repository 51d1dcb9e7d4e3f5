// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package userdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/scrubber/internal/erasure"
)

// Store executes the per-subject deletions against the user database. Each
// delete reports how many rows it removed so repeat runs can tell "deleted"
// from "already gone".
type Store struct {
	pool *pgxpool.Pool
}

var _ erasure.RelationalStore = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) deleteByUserID(ctx context.Context, table, query, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete %s rows: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeletePredictionsByUserID(ctx context.Context, userID string) (int64, error) {
	return s.deleteByUserID(ctx, "predictions",
		`DELETE FROM predictions WHERE user_id = $1`, userID)
}

func (s *Store) DeleteTrainingsByUserID(ctx context.Context, userID string) (int64, error) {
	return s.deleteByUserID(ctx, "trainings",
		`DELETE FROM trainings WHERE user_id = $1`, userID)
}

func (s *Store) DeletePushTokensByUserID(ctx context.Context, userID string) (int64, error) {
	return s.deleteByUserID(ctx, "push_tokens",
		`DELETE FROM push_tokens WHERE user_id = $1`, userID)
}

func (s *Store) DeleteCreditsByUserID(ctx context.Context, userID string) (int64, error) {
	return s.deleteByUserID(ctx, "credits",
		`DELETE FROM credits WHERE user_id = $1`, userID)
}

func (s *Store) DeleteTransactionsByUserID(ctx context.Context, userID string) (int64, error) {
	return s.deleteByUserID(ctx, "transactions",
		`DELETE FROM transactions WHERE user_id = $1`, userID)
}

// ListArtifactRefsByUserID returns every stored-object reference recorded on
// the subject's rows. It must run before the row deletes, since the rows are
// the only place these references live.
func (s *Store) ListArtifactRefsByUserID(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT input_url AS ref FROM predictions
			WHERE user_id = $1 AND input_url IS NOT NULL AND input_url <> ''
		UNION
		SELECT output_url FROM predictions
			WHERE user_id = $1 AND output_url IS NOT NULL AND output_url <> ''
		UNION
		SELECT input_zip_url FROM trainings
			WHERE user_id = $1 AND input_zip_url IS NOT NULL AND input_zip_url <> ''
		UNION
		SELECT weights_url FROM trainings
			WHERE user_id = $1 AND weights_url IS NOT NULL AND weights_url <> ''`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list artifact refs: %w", err)
	}

	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect artifact refs: %w", err)
	}
	return refs, nil
}

package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// SQLSTATE classes that mean the database is unreachable or out of resources.
var unavailableErrClasses = map[string]struct{}{
	"08": {}, // connection exception
	"53": {}, // insufficient resources
	"57": {}, // operator intervention
}

// toPersistenceError maps a database error to a transport-style status.
func toPersistenceError(err error) error {
	status := http.StatusInternalServerError

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && len(pgErr.Code) >= 2:
		if _, ok := unavailableErrClasses[pgErr.Code[:2]]; ok {
			status = http.StatusServiceUnavailable
		}
	case errors.Is(err, driver.ErrBadConn):
		status = http.StatusServiceUnavailable
	}

	return &entity.PersistenceError{StatusCode: status, Err: err}
}

// ItemRepository stores URL and visit documents in a single items table,
// keyed by id and indexed by collection, partition key and short code.
type ItemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Upsert(ctx context.Context, doc entity.Document) (int, error) {
	const op = "adapter.repository.postgres.ItemRepository.Upsert"
	const query = `INSERT INTO items(id, collection, partition_key, short_code, document, date_generated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	collection = EXCLUDED.collection,
	partition_key = EXCLUDED.partition_key,
	short_code = EXCLUDED.short_code,
	document = EXCLUDED.document,
	date_generated = EXCLUDED.date_generated
RETURNING (xmax = 0) AS inserted`

	if doc == nil {
		return 0, fmt.Errorf("%s: document is nil: %w", op, entity.ErrInvalidArgument)
	}

	data, err := doc.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to marshal document: %w", op, err)
	}

	var inserted bool

	err = r.db.QueryRowxContext(ctx, query,
		doc.ID().String(),
		doc.Collection().String(),
		doc.PartitionKey(),
		doc.LookupCode(),
		string(data),
		doc.DateGenerated(),
	).Scan(&inserted)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to upsert into items table: %w", op, toPersistenceError(err))
	}

	if inserted {
		return http.StatusCreated, nil
	}
	return http.StatusOK, nil
}

func (r *ItemRepository) GetURLByCode(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.ItemRepository.GetURLByCode"
	const query = `SELECT document FROM items
WHERE collection = $1 AND short_code = $2
ORDER BY date_generated DESC
LIMIT 1`

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	var data []byte

	if err := r.db.GetContext(ctx, &data, query, entity.CollectionURL.String(), code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: failed to get row from items table: %w", op, toPersistenceError(err))
	}

	var url entity.URL
	if err := json.Unmarshal(data, &url); err != nil {
		return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
	}

	return &url, nil
}

func (r *ItemRepository) GetURLsByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "adapter.repository.postgres.ItemRepository.GetURLsByOwner"
	const query = `SELECT document FROM items
WHERE collection = $1 AND partition_key = $2
ORDER BY date_generated`

	if owner == "" {
		return nil, fmt.Errorf("%s: owner is empty: %w", op, entity.ErrInvalidArgument)
	}

	var docs [][]byte

	if err := r.db.SelectContext(ctx, &docs, query, entity.CollectionURL.String(), owner); err != nil {
		return nil, fmt.Errorf("%s: failed to select from items table: %w", op, toPersistenceError(err))
	}

	urls := make([]*entity.URL, 0, len(docs))
	for _, data := range docs {
		var url entity.URL
		if err := json.Unmarshal(data, &url); err != nil {
			return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
		}
		urls = append(urls, &url)
	}

	return urls, nil
}

func (r *ItemRepository) GetVisitsByCode(ctx context.Context, code string) ([]*entity.Visit, error) {
	const op = "adapter.repository.postgres.ItemRepository.GetVisitsByCode"
	const query = `SELECT document FROM items
WHERE collection = $1 AND short_code = $2
ORDER BY date_generated`

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	var docs [][]byte

	if err := r.db.SelectContext(ctx, &docs, query, entity.CollectionVisit.String(), code); err != nil {
		return nil, fmt.Errorf("%s: failed to select from items table: %w", op, toPersistenceError(err))
	}

	visits := make([]*entity.Visit, 0, len(docs))
	for _, data := range docs {
		var visit entity.Visit
		if err := json.Unmarshal(data, &visit); err != nil {
			return nil, fmt.Errorf("%s: failed to decode visit: %w", op, err)
		}
		visits = append(visits, &visit)
	}

	return visits, nil
}

// Package redis stores URL and visit documents in Redis. Each document lives
// under its own key and is reachable through sorted-set indexes scored by the
// document's generation time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// upsertScript writes the document and adds its id to every index key.
//
// KEYS[1]: document key
// KEYS[2..n]: index keys
// ARGV[1]: document
// ARGV[2]: score
// ARGV[3]: document id
//
// Returns 1 when the document already existed.
var upsertScript = goredis.NewScript(`
local existed = redis.call('EXISTS', KEYS[1])
redis.call('SET', KEYS[1], ARGV[1])
for i = 2, #KEYS do
	redis.call('ZADD', KEYS[i], ARGV[2], ARGV[3])
end
return existed
`)

type Option func(*ItemRepository)

// WithKeyPrefix namespaces every key written by the repository.
func WithKeyPrefix(prefix string) Option {
	return func(r *ItemRepository) {
		r.prefix = prefix
	}
}

type ItemRepository struct {
	client *goredis.Client
	prefix string
}

func NewItemRepository(client *goredis.Client, opts ...Option) *ItemRepository {
	r := &ItemRepository{client: client}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *ItemRepository) itemKey(id string) string {
	return r.prefix + "item:" + id
}

func (r *ItemRepository) urlCodeKey(code string) string {
	return r.prefix + "url:code:" + code
}

func (r *ItemRepository) urlOwnerKey(owner string) string {
	return r.prefix + "url:owner:" + owner
}

func (r *ItemRepository) visitCodeKey(code string) string {
	return r.prefix + "visit:code:" + code
}

func (r *ItemRepository) indexKeys(doc entity.Document) []string {
	switch doc.Collection() {
	case entity.CollectionURL:
		return []string{r.urlCodeKey(doc.LookupCode()), r.urlOwnerKey(doc.PartitionKey())}
	case entity.CollectionVisit:
		return []string{r.visitCodeKey(doc.LookupCode())}
	default:
		return nil
	}
}

// toPersistenceError maps a Redis client error to a transport-style status.
func toPersistenceError(err error) error {
	status := http.StatusInternalServerError

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, goredis.ErrClosed) {
		status = http.StatusServiceUnavailable
	}

	return &entity.PersistenceError{StatusCode: status, Err: err}
}

func (r *ItemRepository) Upsert(ctx context.Context, doc entity.Document) (int, error) {
	const op = "adapter.repository.redis.ItemRepository.Upsert"

	if doc == nil {
		return 0, fmt.Errorf("%s: document is nil: %w", op, entity.ErrInvalidArgument)
	}

	data, err := doc.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to marshal document: %w", op, err)
	}

	id := doc.ID().String()
	keys := append([]string{r.itemKey(id)}, r.indexKeys(doc)...)

	existed, err := upsertScript.Run(ctx, r.client, keys, data, doc.DateGenerated().UnixMicro(), id).Int()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to upsert document: %w", op, toPersistenceError(err))
	}

	if existed == 1 {
		return http.StatusOK, nil
	}
	return http.StatusCreated, nil
}

// load fetches the documents for ids, skipping ids whose document is gone.
func (r *ItemRepository) load(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.itemKey(id)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, toPersistenceError(err)
	}

	docs := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			docs = append(docs, s)
		}
	}

	return docs, nil
}

func (r *ItemRepository) GetURLByCode(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.redis.ItemRepository.GetURLByCode"

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	ids, err := r.client.ZRevRange(ctx, r.urlCodeKey(code), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read code index: %w", op, toPersistenceError(err))
	}

	docs, err := r.load(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load url: %w", op, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var url entity.URL
	if err := json.Unmarshal([]byte(docs[0]), &url); err != nil {
		return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
	}

	return &url, nil
}

func (r *ItemRepository) GetURLsByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "adapter.repository.redis.ItemRepository.GetURLsByOwner"

	if owner == "" {
		return nil, fmt.Errorf("%s: owner is empty: %w", op, entity.ErrInvalidArgument)
	}

	ids, err := r.client.ZRange(ctx, r.urlOwnerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read owner index: %w", op, toPersistenceError(err))
	}

	docs, err := r.load(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load urls: %w", op, err)
	}

	urls := make([]*entity.URL, 0, len(docs))
	for _, data := range docs {
		var url entity.URL
		if err := json.Unmarshal([]byte(data), &url); err != nil {
			return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
		}
		urls = append(urls, &url)
	}

	return urls, nil
}

func (r *ItemRepository) GetVisitsByCode(ctx context.Context, code string) ([]*entity.Visit, error) {
	const op = "adapter.repository.redis.ItemRepository.GetVisitsByCode"

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	ids, err := r.client.ZRange(ctx, r.visitCodeKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read visit index: %w", op, toPersistenceError(err))
	}

	docs, err := r.load(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load visits: %w", op, err)
	}

	visits := make([]*entity.Visit, 0, len(docs))
	for _, data := range docs {
		var visit entity.Visit
		if err := json.Unmarshal([]byte(data), &visit); err != nil {
			return nil, fmt.Errorf("%s: failed to decode visit: %w", op, err)
		}
		visits = append(visits, &visit)
	}

	return visits, nil
}

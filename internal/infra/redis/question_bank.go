package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

// BankRepository caches question banks in Redis as JSON and falls back to a loader on cache miss.
// Banks are stored as: SET quiz:bank:{bankID} <json> EX <ttl>
type BankRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, id string) (domain.QuestionBank, error) {
	if bank, ok := r.fromCache(ctx, id); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// another caller may have filled the cache
		if bank, ok := r.fromCache(ctx, id); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, id)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if raw, err := json.Marshal(bank); err == nil {
			_ = r.client.Set(ctx, r.key(id), raw, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops the cached copy of a bank.
func (r *BankRepository) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *BankRepository) fromCache(ctx context.Context, id string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func (r *BankRepository) key(id string) string {
	return "quiz:bank:" + id
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

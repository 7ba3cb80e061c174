package memory

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"trivia-room-service/internal/domain"
)

//go:embed default_questions.yaml
var defaultQuestionsYAML []byte

// BankLoader fetches a question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, id string) (domain.QuestionBank, error)
}

// BankRepository caches question banks with TTL to avoid repeated store hits.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, id string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(id); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		if bank, ok := r.cached(id); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, id)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		r.mu.Lock()
		r.cache[id] = cachedBank{bank: bank, expiresAt: r.clock().Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops a cached bank so the next read goes to the loader.
func (r *BankRepository) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

func (r *BankRepository) cached(id string) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from memory (embedded defaults, files, tests).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks ...domain.QuestionBank) *StaticBankLoader {
	l := &StaticBankLoader{banks: make(map[string]domain.QuestionBank, len(banks))}
	for _, b := range banks {
		l.banks[b.ID] = b
	}
	return l
}

func (l *StaticBankLoader) LoadBank(_ context.Context, id string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[id]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, id)
}

// ChainLoader tries each loader in order and returns the first bank found.
type ChainLoader []BankLoader

func (c ChainLoader) LoadBank(ctx context.Context, id string) (domain.QuestionBank, error) {
	var lastErr error = fmt.Errorf("%w: %s", domain.ErrBankNotFound, id)
	for _, l := range c {
		bank, err := l.LoadBank(ctx, id)
		if err == nil {
			return bank, nil
		}
		lastErr = err
	}
	return domain.QuestionBank{}, lastErr
}

// DefaultBank returns the bank compiled into the binary.
func DefaultBank() domain.QuestionBank {
	bank, err := ParseBank(defaultQuestionsYAML, "default")
	if err != nil {
		panic(fmt.Sprintf("embedded question bank: %v", err))
	}
	return bank
}

// LoadBankFile reads a YAML or JSON bank from disk.
func LoadBankFile(path, fallbackID string) (domain.QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("read bank file: %w", err)
	}
	return ParseBank(data, fallbackID)
}

// ParseBank decodes a bank document. A bare list of questions is accepted too.
// Questions are normalized and unplayable ones dropped.
func ParseBank(data []byte, fallbackID string) (domain.QuestionBank, error) {
	var bank domain.QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		var list []domain.Question
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return domain.QuestionBank{}, fmt.Errorf("parse bank: %w", err)
		}
		bank.Questions = list
	}
	if bank.ID == "" {
		bank.ID = fallbackID
	}
	bank.Questions = domain.NormalizeQuestions(bank.Questions)
	if len(bank.Questions) == 0 {
		return domain.QuestionBank{}, fmt.Errorf("parse bank %q: no playable questions", bank.ID)
	}
	return bank, nil
}

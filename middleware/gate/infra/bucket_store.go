package infra

import (
	"sync"
	"time"

	"content-gateway/middleware/gate/domain"

	"golang.org/x/time/rate"
)

// BucketStore é a implementação alternativa baseada em token-bucket
// (x/time/rate) com cache por chave e limpeza periódica. Diferente do
// WindowStore, o limite aqui é uma taxa sustentada (rps) com rajada (burst),
// não um teto por janela.
type BucketStore struct {
	mu         sync.Mutex
	entries    map[string]*bucketEntry
	rps        rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type BucketOption func(*BucketStore)

func WithIdleTTL(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.idleTTL = d }
}

func WithBucketSweepEvery(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.sweepEvery = d }
}

func NewBucketStore(rps float64, burst int, opts ...BucketOption) *BucketStore {
	s := &BucketStore{
		entries:    make(map[string]*bucketEntry),
		rps:        rate.Limit(rps),
		burst:      burst,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BucketStore) RPS() float64 { return float64(s.rps) }
func (s *BucketStore) Burst() int   { return s.burst }

// Get implementa domain.LimiterStore.
func (s *BucketStore) Get(key domain.Key) domain.Limiter {
	return s.getLimiter(string(key))
}

func (s *BucketStore) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup remove chaves sem atividade há mais que o idleTTL.
func (s *BucketStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *BucketStore) StartJanitor(ctx DoneContext) {
	runJanitor(ctx, s.sweepEvery, s.Cleanup)
}

package infra

import (
	"sync"
	"time"

	"content-gateway/middleware/gate/domain"
)

// WindowStore é uma implementação de infra baseada em janela fixa: um contador
// por chave que nasce em 1 na primeira requisição e é substituído (não
// incrementado) quando a janela expira. Uma limpeza periódica remove janelas
// vencidas, limitando a memória aos clientes ativos.
type WindowStore struct {
	mu          sync.Mutex
	entries     map[string]*windowEntry
	maxRequests int
	window      time.Duration
	sweepEvery  time.Duration
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

type WindowOption func(*WindowStore)

func WithWindowSweepEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.sweepEvery = d }
}

func NewWindowStore(maxRequests int, window time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		entries:     make(map[string]*windowEntry),
		maxRequests: maxRequests,
		window:      window,
		sweepEvery:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) MaxRequests() int          { return s.maxRequests }
func (s *WindowStore) Window() time.Duration     { return s.window }
func (s *WindowStore) SweepEvery() time.Duration { return s.sweepEvery }

// Get implementa domain.LimiterStore. O limiter devolvido é um handle leve
// sobre a entrada da chave; todo o estado fica no store, sob o mutex.
func (s *WindowStore) Get(key domain.Key) domain.Limiter {
	return windowLimiter{store: s, key: string(key)}
}

// Remaining informa quantas requisições ainda cabem na janela corrente da
// chave. Chave desconhecida ou janela vencida contam como janela cheia.
func (s *WindowStore) Remaining(key domain.Key) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[string(key)]
	if !ok || now.Sub(ent.windowStart) >= s.window {
		return s.maxRequests
	}
	if ent.count >= s.maxRequests {
		return 0
	}
	return s.maxRequests - ent.count
}

func (s *WindowStore) allow(key string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || now.Sub(ent.windowStart) >= s.window {
		// primeira requisição da chave, ou janela vencida: substitui
		s.entries[key] = &windowEntry{count: 1, windowStart: now}
		return true
	}
	if ent.count >= s.maxRequests {
		// bloqueado não incrementa
		return false
	}
	ent.count++
	return true
}

// retryAfter calcula quanto falta para a janela da chave reabrir.
func (s *WindowStore) retryAfter(key string) time.Duration {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return 0
	}
	remaining := s.window - now.Sub(ent.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cleanup remove toda janela cujo início ficou para trás da duração.
// Janelas ainda ativas nunca são removidas.
func (s *WindowStore) Cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if now.Sub(ent.windowStart) >= s.window {
			delete(s.entries, k)
		}
	}
}

// Len informa quantas chaves estão correntemente rastreadas (para testes/stats).
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia uma goroutine que remove janelas vencidas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	runJanitor(ctx, s.sweepEvery, s.Cleanup)
}

type windowLimiter struct {
	store *WindowStore
	key   string
}

func (l windowLimiter) Allow() bool { return l.store.allow(l.key) }

// RetryAfter permite ao Service informar um Retry-After preciso.
func (l windowLimiter) RetryAfter() time.Duration { return l.store.retryAfter(l.key) }

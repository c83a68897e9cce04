package application

import (
	"time"

	"content-gateway/middleware/gate/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

// retryAdvisor é opcional: limiters que sabem quanto falta para a janela
// reabrir podem informar um Retry-After preciso em vez do valor fixo.
type retryAdvisor interface {
	RetryAfter() time.Duration
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	if lim.Allow() {
		return domain.Decision{Allowed: true}
	}

	retry := s.RetryAfter
	if adv, ok := lim.(retryAdvisor); ok {
		if d := adv.RetryAfter(); d > 0 {
			retry = d
		}
	}
	return domain.Decision{Allowed: false, RetryAfter: retry}
}

package gate

import (
	"net"
	"net/http"
	"strings"
	"time"

	"content-gateway/middleware/gate/application"
	"content-gateway/middleware/gate/domain"
)

type KeyFunc func(r *http.Request) string

// DefaultRegionHeader é onde a camada de borda (proxy/CDN) anuncia o código
// da região de origem da requisição.
const DefaultRegionHeader = "X-Region-Code"

type Options struct {
	Store   domain.LimiterStore
	Stats   domain.StatsStore
	Regions domain.RegionDirectory

	// AgentTokens vazio usa application.DefaultAgentTokens.
	AgentTokens []string

	// RegionHeader vazio usa DefaultRegionHeader.
	RegionHeader string

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

// windowInfo e bucketInfo são opcionais nos stores; quando presentes,
// alimentam os headers X-RateLimit-*.
type windowInfo interface {
	MaxRequests() int
	Window() time.Duration
	Remaining(domain.Key) int
}

type bucketInfo interface {
	RPS() float64
	Burst() int
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Middleware monta a corrente de checks (região -> agente -> rate limit) e a
// aplica antes do próximo handler. A primeira falha encerra a requisição com
// o status do check — nunca há segunda escrita de resposta.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.RegionHeader == "" {
		opts.RegionHeader = DefaultRegionHeader
	}

	g := application.NewGate(opts.Regions, opts.AgentTokens, application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders && opts.Store != nil {
				w.Header().Set("X-RateLimit-Key", key)
				if wi, ok := opts.Store.(windowInfo); ok {
					w.Header().Set("X-RateLimit-Limit", formatInt(wi.MaxRequests()))
					w.Header().Set("X-RateLimit-Window", wi.Window().String())
				}
				if bi, ok := opts.Store.(bucketInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(bi.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(bi.Burst()))
				}
			}

			out := g.Evaluate(domain.CheckInput{
				Key:        domain.Key(key),
				RegionCode: r.Header.Get(opts.RegionHeader),
				UserAgent:  r.UserAgent(),
				Method:     r.Method,
				Path:       r.URL.Path,
			})

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: out.Allowed,
					Reason:  out.Reason,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      time.Now(),
				})
			}

			if !out.Allowed {
				if out.Reason == domain.ReasonRateLimited {
					retry := out.RetryAfter
					if retry <= 0 {
						retry = opts.RetryAfter
					}
					w.Header().Set("Retry-After", formatInt(retryAfterSeconds(retry)))
				}
				http.Error(w, rejectionBody(out), out.Status)
				return
			}

			if opts.AddRateLimitHeaders {
				if wi, ok := opts.Store.(windowInfo); ok {
					w.Header().Set("X-RateLimit-Remaining", formatInt(wi.Remaining(domain.Key(key))))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima: anunciar 0s para uma janela que
// reabre em 300ms convida retry imediato.
func retryAfterSeconds(d time.Duration) int {
	secs := int(d.Seconds())
	if time.Duration(secs)*time.Second < d {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

func rejectionBody(out domain.Outcome) string {
	switch out.Reason {
	case domain.ReasonRegionBlocked:
		if out.Detail != "" {
			return "forbidden: access from " + out.Detail + " is not allowed"
		}
		return "forbidden: regional policy"
	case domain.ReasonNonHuman:
		return "forbidden: non-human traffic"
	case domain.ReasonRateLimited:
		return http.StatusText(http.StatusTooManyRequests)
	}
	return http.StatusText(out.Status)
}

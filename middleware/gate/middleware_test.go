package gate

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"content-gateway/middleware/gate/domain"
	"content-gateway/middleware/gate/infra"
)

const browserAgent = "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func newRequest(remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://example/index.html", nil)
	r.RemoteAddr = remoteAddr
	r.Header.Set("User-Agent", browserAgent)
	return r
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	store := infra.NewWindowStore(1, 1*time.Minute)

	calls := 0
	h := Middleware(Options{
		Store:               store,
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	// 1) primeira passa
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, newRequest("10.0.0.1:1234"))
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Key"); got == "" {
		t.Fatalf("expected X-RateLimit-Key header to be set")
	}
	if got := w1.Header().Get("X-RateLimit-Limit"); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}

	// 2) segunda deve bloquear (janela de 1 requisição)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, newRequest("10.0.0.1:1234"))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header to be set")
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestMiddleware_RejectsMissingUserAgent(t *testing.T) {
	store := infra.NewWindowStore(100, 1*time.Minute)

	calls := 0
	h := Middleware(Options{Store: store})(okHandler(&calls))

	// sem User-Agent a recusa vale para qualquer caminho/headers
	r := httptest.NewRequest(http.MethodGet, "http://example/qualquer/coisa.png", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("Referer", "https://example.com/")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing agent, got %d", w.Code)
	}
	if calls != 0 {
		t.Fatalf("expected next handler not to run, got %d calls", calls)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(body), "non-human") {
		t.Fatalf("expected non-human body, got %q", string(body))
	}
}

func TestMiddleware_RejectsBlockedRegion(t *testing.T) {
	store := infra.NewWindowStore(100, 1*time.Minute)
	regions := infra.NewMemoryRegionDirectory([]domain.Region{
		{Code: "XX", Blocked: true, Name: "Blockland"},
	})

	calls := 0
	h := Middleware(Options{Store: store, Regions: regions})(okHandler(&calls))

	r := newRequest("10.0.0.1:1234")
	r.Header.Set(DefaultRegionHeader, "XX")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for blocked region, got %d", w.Code)
	}
	if calls != 0 {
		t.Fatalf("expected next handler not to run")
	}
	body, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(body), "Blockland") {
		t.Fatalf("expected body naming the region, got %q", string(body))
	}
}

func TestMiddleware_AllowsUnknownRegionCode(t *testing.T) {
	store := infra.NewWindowStore(100, 1*time.Minute)
	regions := infra.NewMemoryRegionDirectory([]domain.Region{
		{Code: "XX", Blocked: true},
	})

	h := Middleware(Options{Store: store, Regions: regions})(okHandler(nil))

	r := newRequest("10.0.0.1:1234")
	r.Header.Set(DefaultRegionHeader, "ZZ")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected unknown region to fail open, got %d", w.Code)
	}
}

func TestMiddleware_CustomRegionHeader(t *testing.T) {
	store := infra.NewWindowStore(100, 1*time.Minute)
	regions := infra.NewMemoryRegionDirectory([]domain.Region{
		{Code: "XX", Blocked: true},
	})

	h := Middleware(Options{Store: store, Regions: regions, RegionHeader: "CF-IPCountry"})(okHandler(nil))

	r := newRequest("10.0.0.1:1234")
	r.Header.Set("CF-IPCountry", "XX")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 via custom region header, got %d", w.Code)
	}
}

func TestMiddleware_RecordsStats(t *testing.T) {
	store := infra.NewWindowStore(1, 1*time.Minute)
	stats := infra.NewMemoryStatsStore()

	h := Middleware(Options{Store: store, Stats: stats})(okHandler(nil))

	h.ServeHTTP(httptest.NewRecorder(), newRequest("10.0.0.1:1234"))
	h.ServeHTTP(httptest.NewRecorder(), newRequest("10.0.0.1:1234"))

	total := stats.Total()
	if total.Allowed != 1 || total.Denied != 1 {
		t.Fatalf("expected 1 allowed / 1 denied, got %+v", total)
	}
	if got := stats.ByReason()[domain.ReasonRateLimited]; got != 1 {
		t.Fatalf("expected 1 rate_limited denial, got %d", got)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	store := infra.NewWindowStore(1, 1*time.Minute)

	h := Middleware(Options{Store: store, KeyHeader: "X-Api-Key"})(okHandler(nil))

	// duas chaves diferentes => ambos devem passar (cada chave tem sua própria janela)
	r1 := newRequest("10.0.0.1:1234")
	r1.Header.Set("X-Api-Key", "k1")
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k1, got %d", w1.Code)
	}

	r2 := newRequest("10.0.0.1:1234")
	r2.Header.Set("X-Api-Key", "k2")
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 for key k2, got %d", w2.Code)
	}
}

func TestMiddleware_RetryAfterRoundsUp(t *testing.T) {
	// janela de 30s: o Retry-After anunciado nunca pode ser 0
	store := infra.NewWindowStore(1, 30*time.Second)

	h := Middleware(Options{Store: store})(okHandler(nil))

	h.ServeHTTP(httptest.NewRecorder(), newRequest("10.0.0.1:1234"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest("10.0.0.1:1234"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	got := strings.TrimSpace(w.Header().Get("Retry-After"))
	if got == "" || got == "0" {
		t.Fatalf("expected Retry-After >= 1s, got %q", got)
	}
}

func TestMiddleware_BucketStoreHeaders(t *testing.T) {
	store := infra.NewBucketStore(10, 20)

	h := Middleware(Options{Store: store, AddRateLimitHeaders: true})(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest("10.0.0.1:1234"))

	if got := w.Header().Get("X-RateLimit-RPS"); got != "10" {
		t.Fatalf("expected X-RateLimit-RPS=10, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Burst"); got != "20" {
		t.Fatalf("expected X-RateLimit-Burst=20, got %q", got)
	}
}

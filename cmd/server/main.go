package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"content-gateway/content"
	"content-gateway/middleware/gate"
	"content-gateway/middleware/gate/domain"
	"content-gateway/middleware/gate/infra"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env local é opcional; variáveis de ambiente reais têm precedência
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	handler, err := content.NewHandler(cfg.contentRoot,
		content.WithRoutes(cfg.routes),
		content.WithAllowedReferers(cfg.allowedReferers),
	)
	if err != nil {
		log.Fatalf("content root error: %v", err)
	}

	// a lista de regiões é opcional: falha de load desliga o check regional
	// em vez de derrubar o servidor
	var regions domain.RegionDirectory
	if cfg.regionFile != "" {
		dir, err := infra.LoadRegionFile(cfg.regionFile)
		if err != nil {
			log.Printf("region file error, region check disabled: %v", err)
		} else {
			regions = dir
			log.Printf("regions loaded: file=%s entries=%d", cfg.regionFile, dir.Len())
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := buildStore(ctx, cfg)

	var statsStore domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackKeys(cfg.statsTrackKeys),
		)
	}

	h := http.Handler(handler)
	h = gate.ConcurrencyMiddleware(gate.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)
	h = gate.Middleware(gate.Options{
		Store:               store,
		Stats:               statsStore,
		Regions:             regions,
		AgentTokens:         cfg.agentTokens,
		RegionHeader:        cfg.regionHeader,
		KeyHeader:           cfg.rateKeyHeader,
		TrustXForwardedFor:  cfg.trustXFF,
		RetryAfter:          cfg.retryAfter,
		AddRateLimitHeaders: cfg.addHeaders,
	})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("content server listening on %s root=%s", cfg.listenAddr, handler.Root())
	log.Printf("rate: algo=%s max=%d window=%s sweep=%s rps=%.3f burst=%d keyHeader=%q trustXFF=%v",
		cfg.rateAlgo, cfg.rateMaxRequests, cfg.rateWindow, cfg.rateSweepEvery, cfg.rateRPS, cfg.rateBurst, cfg.rateKeyHeader, cfg.trustXFF)
	log.Printf("gate: regionFile=%q regionHeader=%q referers=%d agentTokens=%d", cfg.regionFile, cfg.regionHeader, len(cfg.allowedReferers), len(cfg.agentTokens))
	log.Printf("stats: enabled=%v redisAddr=%q bucket=%q ttl=%s trackKeys=%v", cfg.statsEnabled, cfg.statsRedisAddr, cfg.statsBucket, cfg.statsTTL, cfg.statsTrackKeys)
	log.Printf("concurrency: max=%d acquireTimeout=%s", cfg.concurrencyMax, cfg.concurrencyTimeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// buildStore monta o LimiterStore do algoritmo configurado e liga o janitor.
func buildStore(ctx context.Context, cfg config) domain.LimiterStore {
	if cfg.rateAlgo == "bucket" {
		store := infra.NewBucketStore(cfg.rateRPS, cfg.rateBurst)
		store.StartJanitor(ctx)
		return store
	}

	store := infra.NewWindowStore(cfg.rateMaxRequests, cfg.rateWindow,
		infra.WithWindowSweepEvery(cfg.rateSweepEvery))
	store.StartJanitor(ctx)
	return store
}

type config struct {
	listenAddr  string
	contentRoot string
	routes      map[string]string

	rateAlgo        string
	rateMaxRequests int
	rateWindow      time.Duration
	rateSweepEvery  time.Duration
	rateRPS         float64
	rateBurst       int
	rateKeyHeader   string
	trustXFF        bool
	retryAfter      time.Duration
	addHeaders      bool

	regionFile   string
	regionHeader string
	agentTokens  []string

	allowedReferers []string

	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackKeys     bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.contentRoot = getenvDefault("CONTENT_ROOT", "./public")
	cfg.routes = parseRoutes(os.Getenv("ROUTES"))

	cfg.rateAlgo = strings.ToLower(getenvDefault("RATE_ALGO", "window"))
	cfg.rateMaxRequests = getenvIntDefault("RATE_MAX_REQUESTS", 100)
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", 15*time.Minute)
	cfg.rateSweepEvery = getenvDurationDefault("RATE_SWEEP_EVERY", 60*time.Second)
	cfg.rateRPS = getenvFloatDefault("RATE_RPS", 10)
	cfg.rateBurst = getenvIntDefault("RATE_BURST", 20)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.regionFile = os.Getenv("REGION_FILE")
	cfg.regionHeader = getenvDefault("REGION_HEADER", gate.DefaultRegionHeader)
	cfg.agentTokens = splitList(os.Getenv("AGENT_TOKENS"))

	cfg.allowedReferers = splitList(os.Getenv("ALLOWED_REFERERS"))

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "gate:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", false)

	if cfg.rateAlgo != "window" && cfg.rateAlgo != "bucket" {
		return config{}, errors.New("RATE_ALGO must be window or bucket")
	}
	if cfg.rateMaxRequests <= 0 {
		return config{}, errors.New("RATE_MAX_REQUESTS must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.rateAlgo == "bucket" {
		if cfg.rateRPS <= 0 {
			return config{}, errors.New("RATE_RPS must be > 0")
		}
		if cfg.rateBurst <= 0 {
			return config{}, errors.New("RATE_BURST must be > 0")
		}
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

// parseRoutes lê a tabela de rotas de ROUTES no formato
// "/=index.html,/sobre=about.html". Vazio usa a tabela padrão.
func parseRoutes(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return content.DefaultRoutes
	}

	routes := make(map[string]string)
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		path := strings.TrimSpace(parts[0])
		file := strings.TrimSpace(parts[1])
		if path == "" || file == "" {
			continue
		}
		routes[path] = file
	}
	if len(routes) == 0 {
		return content.DefaultRoutes
	}
	return routes
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

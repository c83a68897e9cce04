package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-gateway/middleware/gate"
	"content-gateway/middleware/gate/domain"
	"content-gateway/middleware/gate/infra"
)

func main() {
	// Exemplo: injetando o gate diretamente no seu webserver (sem o handler
	// de conteúdo) — qualquer aplicação net/http pode usar a corrente.
	store := infra.NewWindowStore(100, 15*time.Minute)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	regions := infra.NewMemoryRegionDirectory([]domain.Region{
		{Code: "XX", Name: "Exemplo", Blocked: true},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	h := http.Handler(mux)
	h = gate.ConcurrencyMiddleware(gate.ConcurrencyOptions{Max: 50})(h)
	h = gate.Middleware(gate.Options{
		Store:               store,
		Regions:             regions,
		TrustXForwardedFor:  true,
		AddRateLimitHeaders: true,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

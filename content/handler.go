package content

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRoutes é a tabela mínima: a raiz serve o index.
var DefaultRoutes = map[string]string{
	"/": "index.html",
}

// Handler serve rotas HTML e assets a partir de uma raiz de conteúdo.
// Imutável após a construção; seguro para uso concorrente.
type Handler struct {
	root            string
	routes          map[string]string
	allowedReferers []string
}

type Option func(*Handler)

// WithRoutes substitui a tabela de rotas (caminho exato -> arquivo na raiz).
func WithRoutes(routes map[string]string) Option {
	return func(h *Handler) {
		h.routes = make(map[string]string, len(routes))
		for k, v := range routes {
			h.routes[k] = v
		}
	}
}

// WithAllowedReferers define os prefixos de origem aceitos para servir assets
// quando a requisição traz Referer. Vazio desliga a proteção de hotlink.
func WithAllowedReferers(origins []string) Option {
	return func(h *Handler) {
		h.allowedReferers = nil
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				h.allowedReferers = append(h.allowedReferers, o)
			}
		}
	}
}

// NewHandler resolve a raiz para um caminho absoluto e valida que ela existe.
func NewHandler(root string, opts ...Option) (*Handler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", abs)
	}

	h := &Handler{root: abs, routes: DefaultRoutes}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) Root() string { return h.root }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if name, ok := h.routes[r.URL.Path]; ok {
		h.serveRoute(w, name)
		return
	}
	h.serveAsset(w, r)
}

// serveRoute lê o arquivo da rota e responde como HTML sem cache.
func (h *Handler) serveRoute(w http.ResponseWriter, name string) {
	body, err := os.ReadFile(filepath.Join(h.root, name))
	if err != nil {
		log.Printf("route file %s: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	head := w.Header()
	head.Set("Content-Type", "text/html; charset=utf-8")
	head.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	head.Set("Pragma", "no-cache")
	head.Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request) {
	full, ok := h.resolve(r.URL.Path)
	if !ok {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// hotlink só depois de confirmar que o asset existe (404 vence 403)
	if ref := r.Referer(); ref != "" && !h.refererAllowed(ref) {
		http.Error(w, "forbidden: hotlinking", http.StatusForbidden)
		return
	}

	body, err := os.ReadFile(full)
	if err != nil {
		log.Printf("asset %s: %v", r.URL.Path, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", TypeByPath(full))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// resolve normaliza o caminho da requisição e o contém dentro da raiz.
// Qualquer escape da raiz devolve ok=false antes de tocar o filesystem.
func (h *Handler) resolve(reqPath string) (string, bool) {
	clean := filepath.Clean("/" + reqPath)
	full := filepath.Join(h.root, clean)
	if full != h.root && !strings.HasPrefix(full, h.root+string(os.PathSeparator)) {
		return "", false
	}
	return full, true
}

func (h *Handler) refererAllowed(ref string) bool {
	if len(h.allowedReferers) == 0 {
		return true
	}
	for _, origin := range h.allowedReferers {
		if strings.HasPrefix(ref, origin) {
			return true
		}
	}
	return false
}

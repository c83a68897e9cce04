package content

import (
	"path/filepath"
	"strings"
)

// Tabela própria de tipos por extensão: o conjunto servido é pequeno e
// conhecido, e o fallback para binário genérico é exigido para o resto.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".txt":   "text/plain; charset=utf-8",
	".xml":   "application/xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".mp4":   "video/mp4",
}

const defaultMIMEType = "application/octet-stream"

// TypeByPath devolve o content-type pela extensão do arquivo.
// Extensão desconhecida cai no binário genérico.
func TypeByPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return defaultMIMEType
}

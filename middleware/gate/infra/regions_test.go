package infra

import (
	"os"
	"path/filepath"
	"testing"

	"content-gateway/middleware/gate/domain"
)

func writeRegionFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regions.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write region file: %v", err)
	}
	return path
}

func TestLoadRegionFile_ParsesEntries(t *testing.T) {
	path := writeRegionFile(t, `
regions:
  - code: br
    name: Brasil
    blocked: false
  - code: XX
    name: Blockland
    blocked: true
`)

	dir, err := LoadRegionFile(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if dir.Len() != 2 {
		t.Fatalf("expected 2 regions, got %d", dir.Len())
	}

	// lookup normaliza o código (minúsculas no arquivo, maiúsculas na consulta)
	r, ok := dir.Lookup("BR")
	if !ok {
		t.Fatalf("expected BR to be found")
	}
	if r.Blocked {
		t.Fatalf("expected BR not blocked")
	}

	r, ok = dir.Lookup(" xx ")
	if !ok {
		t.Fatalf("expected XX to be found with messy input")
	}
	if !r.Blocked || r.Name != "Blockland" {
		t.Fatalf("expected blocked Blockland, got %+v", r)
	}
}

func TestLoadRegionFile_MissingFile(t *testing.T) {
	_, err := LoadRegionFile(filepath.Join(t.TempDir(), "nao-existe.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRegionFile_MalformedYAML(t *testing.T) {
	path := writeRegionFile(t, "regions: [code: {")
	_, err := LoadRegionFile(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMemoryRegionDirectory_LookupMissIsExplicit(t *testing.T) {
	dir := NewMemoryRegionDirectory([]domain.Region{{Code: "XX", Blocked: true}})

	if _, ok := dir.Lookup("ZZ"); ok {
		t.Fatalf("expected miss for unknown code")
	}
}

func TestMemoryRegionDirectory_SkipsEmptyCodes(t *testing.T) {
	dir := NewMemoryRegionDirectory([]domain.Region{
		{Code: "  ", Name: "vazia"},
		{Code: "AA", Name: "ok"},
	})
	if dir.Len() != 1 {
		t.Fatalf("expected empty codes to be dropped, len=%d", dir.Len())
	}
}

func TestMemoryRegionDirectory_NilLookup(t *testing.T) {
	var dir *MemoryRegionDirectory
	if _, ok := dir.Lookup("XX"); ok {
		t.Fatalf("expected nil directory to always miss")
	}
}

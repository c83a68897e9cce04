package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"content-gateway/middleware/gate/domain"
)

// Diretório de regiões carregado uma vez na subida, de um arquivo YAML:
//
//	regions:
//	  - code: BR
//	    name: Brasil
//	    blocked: false
//	  - code: XX
//	    name: Exemplo
//	    blocked: true
//
// Falha de leitura/parse é decisão de quem chama (o binário loga e segue
// sem o check regional).

type regionFile struct {
	Regions []regionFileEntry `yaml:"regions"`
}

type regionFileEntry struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Blocked bool   `yaml:"blocked"`
}

// MemoryRegionDirectory implementa domain.RegionDirectory sobre um map
// imutável após a construção; sem mutação, leitura concorrente é segura.
type MemoryRegionDirectory struct {
	byCode map[string]domain.Region
}

// LoadRegionFile lê e valida o arquivo de regiões.
func LoadRegionFile(path string) (*MemoryRegionDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region file: %w", err)
	}

	var rf regionFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse region file %s: %w", path, err)
	}

	return NewMemoryRegionDirectory(regionsFromFile(rf)), nil
}

func regionsFromFile(rf regionFile) []domain.Region {
	out := make([]domain.Region, 0, len(rf.Regions))
	for _, e := range rf.Regions {
		out = append(out, domain.Region{
			Code:    e.Code,
			Name:    e.Name,
			Blocked: e.Blocked,
		})
	}
	return out
}

// NewMemoryRegionDirectory indexa as regiões por código normalizado
// (maiúsculas, sem espaços). Entradas sem código são descartadas.
func NewMemoryRegionDirectory(regions []domain.Region) *MemoryRegionDirectory {
	byCode := make(map[string]domain.Region, len(regions))
	for _, r := range regions {
		code := normalizeRegionCode(r.Code)
		if code == "" {
			continue
		}
		r.Code = code
		byCode[code] = r
	}
	return &MemoryRegionDirectory{byCode: byCode}
}

func (d *MemoryRegionDirectory) Lookup(code string) (domain.Region, bool) {
	if d == nil {
		return domain.Region{}, false
	}
	r, ok := d.byCode[normalizeRegionCode(code)]
	return r, ok
}

// Len informa quantas regiões foram carregadas (para logs de subida).
func (d *MemoryRegionDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byCode)
}

func normalizeRegionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

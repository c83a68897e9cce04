package domain

// Region descreve o status de bloqueio de uma região geográfica.
// Imutável após o carregamento.
type Region struct {
	Code    string
	Blocked bool
	Name    string
}

// RegionDirectory resolve códigos de região vindos da camada de borda.
//
// A ausência de um código é um resultado explícito (ok=false), nunca um
// acesso não verificado — quem consome decide o que fazer com o miss.
type RegionDirectory interface {
	Lookup(code string) (Region, bool)
}

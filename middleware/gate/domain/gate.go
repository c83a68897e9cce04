package domain

import "time"

// CheckInput reúne os fatos de uma requisição que o gate avalia.
//
// A extração (headers, endereço remoto) é responsabilidade do adapter HTTP;
// aqui só chegam valores já resolvidos.
type CheckInput struct {
	Key        Key
	RegionCode string
	UserAgent  string

	Method string
	Path   string
}

// Reason identifica por que um check recusou a requisição.
type Reason string

const (
	ReasonRegionBlocked Reason = "region_blocked"
	ReasonNonHuman      Reason = "non_human"
	ReasonRateLimited   Reason = "rate_limited"
)

// Outcome é o resultado de um check (ou da corrente inteira).
//
// Quando Allowed=true os demais campos ficam zerados. Quando bloqueado,
// Status carrega o código HTTP que o check é dono (403/429) — mantido como
// int para não acoplar o domínio a net/http.
type Outcome struct {
	Allowed bool
	Status  int
	Reason  Reason

	// RetryAfter só é preenchido em bloqueios de rate limit.
	RetryAfter time.Duration

	// Detail é texto livre para corpo/log (ex: nome da região bloqueada).
	Detail string
}

// Check é um predicado do gate: recebe os fatos da requisição e devolve
// um Outcome. A corrente avalia os checks em ordem fixa e interrompe na
// primeira falha.
type Check interface {
	Evaluate(CheckInput) Outcome
}

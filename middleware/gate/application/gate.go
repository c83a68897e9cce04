package application

import (
	"strings"

	"content-gateway/middleware/gate/domain"
)

// Checks do gate de acesso.
//
// Cada check é independente e dono do próprio status de recusa. A corrente
// avalia na ordem fixa região -> agente -> rate limit e interrompe na
// primeira falha, de modo que exatamente um desfecho é produzido por
// requisição (nunca dois writes).

// DefaultAgentTokens é a whitelist de substrings que identificam navegadores
// conhecidos. Não é detecção de bot — só um filtro de tráfego declaradamente
// não-humano.
var DefaultAgentTokens = []string{
	"Mozilla",
	"Chrome",
	"Safari",
	"Firefox",
	"Edge",
	"Opera",
}

// RegionCheck bloqueia requisições originadas de regiões marcadas na lista.
//
// O check "abre" em qualquer condição degradada: sem sinal de região na
// requisição, sem diretório carregado (falha de load na subida) ou código
// fora da lista. Só bloqueia com uma entrada explícita Blocked=true.
type RegionCheck struct {
	Directory domain.RegionDirectory
}

func (c RegionCheck) Evaluate(in domain.CheckInput) domain.Outcome {
	code := strings.TrimSpace(in.RegionCode)
	if code == "" || c.Directory == nil {
		return domain.Outcome{Allowed: true}
	}

	region, ok := c.Directory.Lookup(code)
	if !ok || !region.Blocked {
		return domain.Outcome{Allowed: true}
	}

	return domain.Outcome{
		Status: 403,
		Reason: domain.ReasonRegionBlocked,
		Detail: region.Name,
	}
}

// AgentCheck exige um User-Agent que contenha algum token da whitelist.
// Sem User-Agent a falha é fechada (rejeita).
type AgentCheck struct {
	// Tokens vazio usa DefaultAgentTokens.
	Tokens []string
}

func (c AgentCheck) Evaluate(in domain.CheckInput) domain.Outcome {
	agent := strings.TrimSpace(in.UserAgent)
	if agent == "" {
		return domain.Outcome{Status: 403, Reason: domain.ReasonNonHuman}
	}

	tokens := c.Tokens
	if len(tokens) == 0 {
		tokens = DefaultAgentTokens
	}
	for _, tok := range tokens {
		if strings.Contains(agent, tok) {
			return domain.Outcome{Allowed: true}
		}
	}
	return domain.Outcome{Status: 403, Reason: domain.ReasonNonHuman}
}

// RateCheck adapta a decisão do Service ao contrato de Check.
type RateCheck struct {
	Service Service
}

func (c RateCheck) Evaluate(in domain.CheckInput) domain.Outcome {
	dec := c.Service.Decide(in.Key)
	if dec.Allowed {
		return domain.Outcome{Allowed: true}
	}
	return domain.Outcome{
		Status:     429,
		Reason:     domain.ReasonRateLimited,
		RetryAfter: dec.RetryAfter,
	}
}

// Gate é a corrente ordenada de checks.
type Gate struct {
	Checks []domain.Check
}

// NewGate monta a corrente na ordem padrão: região, agente, rate limit.
func NewGate(regions domain.RegionDirectory, agentTokens []string, rate Service) Gate {
	return Gate{Checks: []domain.Check{
		RegionCheck{Directory: regions},
		AgentCheck{Tokens: agentTokens},
		RateCheck{Service: rate},
	}}
}

// Evaluate percorre os checks em ordem e devolve o primeiro bloqueio.
// Checks posteriores ao bloqueio não são avaliados.
func (g Gate) Evaluate(in domain.CheckInput) domain.Outcome {
	for _, check := range g.Checks {
		if out := check.Evaluate(in); !out.Allowed {
			return out
		}
	}
	return domain.Outcome{Allowed: true}
}

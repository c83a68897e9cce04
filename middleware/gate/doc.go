// Package gate fornece adapters HTTP (net/http) para o gate de acesso do
// servidor de conteúdo: bloqueio regional, checagem de agente humano,
// rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (corrente de checks, decisão allow/deny,
//     acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, token bucket, diretório
//     de regiões, stats, semáforo), detalhes de infraestrutura
//   - gate (este pacote): middlewares HTTP + wiring/extração de chave +
//     tradução para status/headers
//
// Fluxo no servidor:
//
//  1. Extrai os fatos da requisição (chave IP/header/XFF, código de região,
//     User-Agent)
//  2. Chama a camada application para avaliar a corrente de checks em ordem
//     fixa: região -> agente -> rate limit
//  3. A primeira falha responde 403 (região/agente) ou 429 (rate limit) e
//     encerra — nenhum check posterior roda e nenhum conteúdo é resolvido
//  4. Se permitido, chama o próximo handler (ex: o handler de conteúdo)
//
// Variáveis de ambiente do binário servidor (cmd/server) controlam o
// comportamento, como RATE_MAX_REQUESTS, RATE_WINDOW, REGION_FILE e
// ALLOWED_REFERERS.
package gate

// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: contador por janela fixa com janitor periódico (padrão)
//   - BucketStore: token bucket por chave usando golang.org/x/time/rate
//   - MemoryRegionDirectory: lista de bloqueio regional carregada de YAML
//   - RedisStatsStore / MemoryStatsStore: contadores de decisão do gate
//   - ChanPool: semáforo simples para limite de concorrência
package infra

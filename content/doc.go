// Package content resolve e serve o conteúdo estático do servidor.
//
// Um caminho de requisição cai em um de dois casos:
//
//   - rota: match exato na tabela de rotas -> arquivo HTML com headers
//     no-cache (páginas nunca ficam em cache de borda/navegador)
//   - asset: qualquer outro caminho, resolvido contra a raiz de conteúdo
//     com contenção de path traversal, tipo por extensão e proteção
//     contra hotlinking via Referer
//
// O handler escreve exatamente um desfecho por requisição: 200, 403
// (traversal/hotlink), 404 (asset inexistente) ou 500 (falha de leitura).
package content

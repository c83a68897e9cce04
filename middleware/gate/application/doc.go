// Package application contém os casos de uso (regras de aplicação) do gate
// de acesso: a corrente de checks (região, agente, rate limit), a decisão de
// rate limit e o limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Gate.Evaluate(input) devolve o Outcome do primeiro check que bloquear.
package application

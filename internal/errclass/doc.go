// Package errclass классифицирует ошибки коллабораторов в фиксированный
// набор видов (domain.ErrorKind).
//
// Classify — чистая функция без состояния: один и тот же вход всегда даёт
// один и тот же результат (инвариант 5 тестируемых свойств спецификации).
// Она служит единственным оракулом, решающим, может ли self-healing
// конверт (genexec) пытаться авто-починку между попытками.
package errclass

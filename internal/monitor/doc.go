// Package monitor реализует Pipeline Monitor: по одному фоновому циклу
// на проект, опрашивающему последние CI-прогоны и продвигающему
// конечный автомат по идентификатору прогона (пропуск / автофикс /
// уведомление о зелёной сборке / отказ после исчерпания попыток), а
// также проверку зависших воркеров в том же цикле, которая кооперативно
// сбрасывает воркеров, застрявших в состоянии working дольше порога.
package monitor

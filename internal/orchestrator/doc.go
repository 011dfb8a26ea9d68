// Package orchestrator связывает реестр проектов, пул воркеров, монитор
// CI и финишер деплоя в единую точку входа, за которой стоят
// абстрактные команды control-surface (§6): создать/список/переключить
// проект, запустить конвейер, назначить issues, прогнать тесты,
// запустить/остановить/статус воркеров, запустить/остановить/статус
// монитора, деплой, редеплой.
package orchestrator

// Package deploy реализует Deployment Finisher (§4.10): секвенциальный
// конвейер image build → port allocation → run container → route DNS →
// update ingress config → reload. Шаги 1-3 фатальны при ошибке; шаги
// 4-6 best-effort — общий деплой считается успешным, если шаги 1-3
// прошли, даже если туннель не удалось подключить.
package deploy

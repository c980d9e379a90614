// redact предоставляет утилиты безопасного редактирования чувствительных
// данных для логов (логины, токены, пароли). Цель — исключить утечки секретов,
// сохранив при этом полезный для отладки контекст.
package redact

import "strings"

// Username маскирует логин для логирования.
//
// Правила:
//   - логин-e-mail маскируется как e-mail (см. Email);
//   - иначе первые два символа (по рунам) + "***";
//   - если длина ≤ 2 символов — возвращается "***".
func Username(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

// Email маскирует e-mail для логирования.
//
// Правила:
//   - Строка должна содержать РОВНО один символ '@', иначе возвращается "***";
//   - Локальная часть (до '@') заменяется на первые два символа (по рунам) + "***";
//   - Если длина локальной части ≤ 2 символов — возвращается "***@<domain>";
//   - Доменная часть возвращается без изменений.
//
// Примеры:
//
//	"foobar@example.com"   -> "fo***@example.com"
//	"ab@ex.com"            -> "***@ex.com"
//	"no-at"                -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }

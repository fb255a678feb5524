// internal/config/database.go
package config

import (
	"strings"
)

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// DSN renders the keyword/value connection string shared by gorm and the
// LISTEN connection. Empty settings are left to libpq defaults.
func (d *DatabaseConfig) DSN() string {
	settings := [][2]string{
		{"host", d.Host},
		{"port", d.Port},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Database},
		{"sslmode", d.SSLMode},
		{"application_name", "clubhub"},
	}

	parts := make([]string, 0, len(settings))
	for _, kv := range settings {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+"="+quoteDSNValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes values containing spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}

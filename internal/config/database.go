// internal/config/database.go
package config

import (
	"fmt"
)

// DSN builds the postgres connection string. Timestamps are stored and
// compared in the configured timezone, which matters for course end dates
// and coupon expiry.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode, d.TimeZone,
	)
}

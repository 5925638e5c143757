// Package config loads the manager-level settings that are process-wide
// rather than per-archive: SMTP transport, the optional Postgres run-
// history DSN, the ping timeout, and the legacy-importer toggle. This is
// distinct from the per-archive Persistence Codec (internal/persistence);
// it never touches archive records.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SMTP holds the operator-email transport settings for the Notifier.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Manager is the process-wide configuration surface.
type Manager struct {
	ConfigDir           string
	SMTP                SMTP
	PostgresDSN         string
	PingTimeout         time.Duration
	LegacyImportEnabled bool
}

// Load reads manager configuration from, in order of increasing
// precedence: /etc/vaultkeeper/vaultkeeper.yaml, ./vaultkeeper.yaml, and
// VAULTKEEPER_* environment variables. Only one file is read: when
// ./vaultkeeper.yaml exists it is used instead of the /etc one, and the
// two files' keys are not merged.
func Load() (*Manager, error) {
	v := viper.New()
	v.SetConfigName("vaultkeeper")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/vaultkeeper")

	v.SetEnvPrefix("VAULTKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("pingTimeout", "5s")
	v.SetDefault("legacyImportEnabled", true)
	v.SetDefault("configDir", "/etc/vaultkeeper/archives")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read manager config: %w", err)
		}
	}

	pingTimeout, err := time.ParseDuration(v.GetString("pingTimeout"))
	if err != nil {
		return nil, fmt.Errorf("pingTimeout: %w", err)
	}

	return &Manager{
		ConfigDir: v.GetString("configDir"),
		SMTP: SMTP{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		PostgresDSN:         v.GetString("postgresDSN"),
		PingTimeout:         pingTimeout,
		LegacyImportEnabled: v.GetBool("legacyImportEnabled"),
	}, nil
}

package config

import (
	"os"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("VAULTKEEPER_SMTP_HOST", "smtp.example.com")
	os.Setenv("VAULTKEEPER_SMTP_PORT", "587")
	os.Setenv("VAULTKEEPER_POSTGRESDSN", "postgres://localhost/vk")
	defer func() {
		os.Unsetenv("VAULTKEEPER_SMTP_HOST")
		os.Unsetenv("VAULTKEEPER_SMTP_PORT")
		os.Unsetenv("VAULTKEEPER_POSTGRESDSN")
	}()

	m, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.SMTP.Host != "smtp.example.com" {
		t.Fatalf("SMTP.Host = %q", m.SMTP.Host)
	}
	if m.SMTP.Port != 587 {
		t.Fatalf("SMTP.Port = %d", m.SMTP.Port)
	}
	if m.PostgresDSN != "postgres://localhost/vk" {
		t.Fatalf("PostgresDSN = %q", m.PostgresDSN)
	}
}

func TestLoadDefaults(t *testing.T) {
	m, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.PingTimeout.Seconds() != 5 {
		t.Fatalf("PingTimeout = %v, want 5s default", m.PingTimeout)
	}
	if !m.LegacyImportEnabled {
		t.Fatal("LegacyImportEnabled should default to true")
	}
	if m.ConfigDir != "/etc/vaultkeeper/archives" {
		t.Fatalf("ConfigDir = %q, want default", m.ConfigDir)
	}
}

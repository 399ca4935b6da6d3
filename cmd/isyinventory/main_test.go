package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/simplextech/udi-poly-inventory/internal/auth"
)

const testSecret = "test-secret-for-development-only"

// writeConfig writes content to a config file in a temp directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config error", err)
	}
}

// TestRun_InvalidConfigContent verifies validation errors stop startup.
func TestRun_InvalidConfigContent(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  qos: 5
`)

	err := run(context.Background(), path)
	if err == nil {
		t.Fatal("run() should fail with qos 5")
	}
	if !strings.Contains(err.Error(), "mqtt.qos") {
		t.Errorf("run() error = %v, want mqtt.qos validation error", err)
	}
}

// TestRun_DatabaseOpenFails verifies history setup errors stop startup
// before the broker is contacted.
func TestRun_DatabaseOpenFails(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	path := writeConfig(t, `
database:
  enabled: true
  path: "`+filepath.Join(blocker, "data", "inventory.db")+`"

logging:
  level: error
  format: text
  output: stderr
`)

	err := run(context.Background(), path)
	if err == nil {
		t.Fatal("run() should fail when the database directory cannot be created")
	}
	if !strings.Contains(err.Error(), "opening database") {
		t.Errorf("run() error = %v, want opening database error", err)
	}
}

// TestRun_StatusAPIPortInUse verifies a busy API port stops startup after
// the history database is migrated.
func TestRun_StatusAPIPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	path := writeConfig(t, `
database:
  enabled: true
  path: "`+dbPath+`"

api:
  enabled: true
  host: "127.0.0.1"
  port: `+strconv.Itoa(port)+`

logging:
  level: error
  format: text
  output: stderr
`)

	err = run(context.Background(), path)
	if err == nil {
		t.Fatal("run() should fail when the API port is in use")
	}
	if !strings.Contains(err.Error(), "starting status API") {
		t.Errorf("run() error = %v, want starting status API error", err)
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		t.Errorf("database file not created: %v", statErr)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("ISYINV_CONFIG", "")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("ISYINV_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, `
api:
  auth:
    jwt_secret: "`+testSecret+`"
`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--subject", "dashboard", "--ttl", "1h"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("token command error = %v", err)
	}

	token := strings.TrimSpace(out.String())
	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "dashboard" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "dashboard")
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != time.Hour {
		t.Errorf("token lifetime = %v, want %v", lifetime, time.Hour)
	}
}

func TestTokenCommand_NoSecret(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: error\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", path})

	err := cmd.Execute()
	if !errors.Is(err, errNoJWTSecret) {
		t.Errorf("token command error = %v, want %v", err, errNoJWTSecret)
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"unexpected"})

	if err := cmd.Execute(); err == nil {
		t.Error("root command should reject positional arguments")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
agent:
  uuid: "node-a"
  tick_period: 3
  gateway_device_id: "grid1"
devices:
  simulated:
    - id: "pv1"
      type: "drer"
      power: 5.0
    - id: "grid1"
      type: "grid"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.UUID != "node-a" {
		t.Errorf("Agent.UUID = %q, want %q", cfg.Agent.UUID, "node-a")
	}
	if cfg.Agent.GatewayDeviceID != "grid1" {
		t.Errorf("Agent.GatewayDeviceID = %q, want %q", cfg.Agent.GatewayDeviceID, "grid1")
	}
	if got := cfg.GetTickPeriod(); got != 3*time.Second {
		t.Errorf("GetTickPeriod() = %v, want %v", got, 3*time.Second)
	}
	if len(cfg.Devices.Simulated) != 2 {
		t.Errorf("len(Devices.Simulated) = %d, want 2", len(cfg.Devices.Simulated))
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.TickPeriod != defaultTickPeriod {
		t.Errorf("Agent.TickPeriod = %d, want %d", cfg.Agent.TickPeriod, defaultTickPeriod)
	}
	if cfg.Agent.GatewayDeviceID != "grid3" {
		t.Errorf("Agent.GatewayDeviceID = %q, want %q", cfg.Agent.GatewayDeviceID, "grid3")
	}
	if cfg.Agent.UnitScale != defaultUnitScale {
		t.Errorf("Agent.UnitScale = %v, want %v", cfg.Agent.UnitScale, float64(defaultUnitScale))
	}
	if cfg.MQTT.QoS != 1 {
		t.Errorf("MQTT.QoS = %d, want 1", cfg.MQTT.QoS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
agent:
  tick_period: 0
database:
  path: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_DuplicateDeviceID(t *testing.T) {
	content := `
devices:
  simulated:
    - id: "pv1"
      type: "drer"
    - id: "pv1"
      type: "drer"
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for duplicate device id, got nil")
	}
}

func TestLoad_UnknownDeviceType(t *testing.T) {
	content := `
devices:
  simulated:
    - id: "mystery"
      type: "flux_capacitor"
database:
  path: "/tmp/test.db"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for unknown device type, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
`
	t.Setenv("MICROGRID_AGENT_UUID", "env-node")
	t.Setenv("MICROGRID_MQTT_HOST", "broker.internal")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Agent.UUID != "env-node" {
		t.Errorf("Agent.UUID = %q, want env override %q", cfg.Agent.UUID, "env-node")
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "broker.internal")
	}
}

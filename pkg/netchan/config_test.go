package netchan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestConfiguration_DefaultsAreValid(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := DefaultBaseConfiguration()
	if err := ValidateBaseConfiguration(base); err != nil {
		t.Errorf("default base configuration should be valid. %v", err)
	}

	trans := DefaultTransportConfiguration()
	if err := ValidateTransportConfiguration(trans); err != nil {
		t.Errorf("default transport configuration should be valid. %v", err)
	}
}

func TestConfiguration_RejectsInvalidValues(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := DefaultBaseConfiguration()
	base.Version = 100
	if err := ValidateBaseConfiguration(base); err == nil {
		t.Error("unknown protocol version should be rejected")
	}

	trans := DefaultTransportConfiguration()
	trans.Timeout = time.Hour
	if err := ValidateTransportConfiguration(trans); err == nil {
		t.Error("excessive transport timeout should be rejected")
	}

	node := &NodeConfiguration{Address: "127.0.0.1:7000"}
	if err := ValidateNodeConfiguration(node); err == nil {
		t.Error("node without a name should be rejected")
	}

	node = &NodeConfiguration{Name: "node-a"}
	if err := ValidateNodeConfiguration(node); err == nil {
		t.Error("node without an address should be rejected")
	}
}

func TestConfiguration_ValidationFillsLogger(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := &BaseConfiguration{}
	if err := ValidateBaseConfiguration(base); err != nil {
		t.Fatalf("empty base configuration should validate. %v", err)
	}
	if base.Logger == nil {
		t.Error("validation should fill the default logger")
	}
}

func TestConfiguration_LoadFromYAML(t *testing.T) {
	defer goleak.VerifyNone(t)

	content := `
name: node-a
address: 127.0.0.1:7000
announce_address: 127.0.0.1:7100
timeout: 2s
pool_size: 5
log_level: DEBUG
`
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing configuration file. %v", err)
	}

	configuration, err := LoadNodeConfiguration(path)
	if err != nil {
		t.Fatalf("failed loading configuration. %v", err)
	}
	if configuration.Name != "node-a" {
		t.Errorf("expected node-a, found %s", configuration.Name)
	}
	if configuration.Address != "127.0.0.1:7000" {
		t.Errorf("expected 127.0.0.1:7000, found %s", configuration.Address)
	}
	if configuration.AnnounceAddress != "127.0.0.1:7100" {
		t.Errorf("expected 127.0.0.1:7100, found %s", configuration.AnnounceAddress)
	}
	if configuration.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, found %v", configuration.Timeout)
	}
	if configuration.PoolSize != 5 {
		t.Errorf("expected pool size 5, found %d", configuration.PoolSize)
	}
}

func TestConfiguration_LoadAppliesDefaults(t *testing.T) {
	defer goleak.VerifyNone(t)

	content := `
name: node-a
address: 127.0.0.1:7000
`
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing configuration file. %v", err)
	}

	configuration, err := LoadNodeConfiguration(path)
	if err != nil {
		t.Fatalf("failed loading configuration. %v", err)
	}
	if configuration.Timeout != 5*time.Second {
		t.Errorf("expected default timeout, found %v", configuration.Timeout)
	}
	if configuration.PoolSize != 3 {
		t.Errorf("expected default pool size, found %d", configuration.PoolSize)
	}
	if len(configuration.AnnounceAddress) != 0 {
		t.Errorf("announce address should default to empty, found %s", configuration.AnnounceAddress)
	}
}

func TestConfiguration_LoadMissingFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	if _, err := LoadNodeConfiguration(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

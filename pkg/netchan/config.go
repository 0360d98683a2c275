package netchan

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netchan-dev/go-netchan/pkg/netchan/types"
)

const (
	// Use a maximum timeout for transport configuration.
	transportMaxTimeout = 30 * time.Second
)

// The basic configuration used throughout the runtime. Will inform
// the protocol version used, the logger and the log level.
type BaseConfiguration struct {
	// Control for versioning the protocol, so the nodes can work on
	// different versions and know which version each one is talking.
	Version types.ProtocolVersion

	// User provided logger to be used.
	Logger types.Logger

	// LogLevel represents a log level.
	LogLevel string
}

// Used for transport configuration, applied to every transport
// bootstrapped by the node.
type TransportConfiguration struct {
	// Use advertise address on transport, defaults to nil.
	UseAdvertiseAddress net.Addr

	// How many connections can be pooled, default to 3 connections.
	PoolSize uint8

	// Transport timeout for communication, default to 5 seconds.
	Timeout time.Duration

	// Resolver routing channel RPCs to the announced binding.
	Resolver AddressResolver
}

// Creates a default configuration ready to be used.
func DefaultBaseConfiguration() *BaseConfiguration {
	return &BaseConfiguration{
		Version:  types.LatestProtocolVersion,
		Logger:   NewDefaultLogger(),
		LogLevel: "ERROR",
	}
}

// Create a configuration for transport using the default values.
// For default will not be used the advertise address, will be pooled
// 3 connections and the transport timeout is 5 seconds.
func DefaultTransportConfiguration() *TransportConfiguration {
	return &TransportConfiguration{
		UseAdvertiseAddress: nil,
		PoolSize:            3,
		Timeout:             5 * time.Second,
	}
}

// Verify if the given configuration is valid to be used.
func ValidateBaseConfiguration(config *BaseConfiguration) error {
	if config.Version > types.LatestProtocolVersion {
		return fmt.Errorf("invalid protocol version %d, must be in 0 up to %d", config.Version, types.LatestProtocolVersion)
	}

	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}

	return nil
}

// Verify the transport configuration for errors.
func ValidateTransportConfiguration(configuration *TransportConfiguration) error {
	if configuration.Timeout > transportMaxTimeout {
		return fmt.Errorf("transport timeout too high %v max is %v", configuration.Timeout, transportMaxTimeout)
	}

	return nil
}

// NodeConfiguration describes one node that hosts channel input ends,
// usually loaded from a YAML file shipped with the deployment.
type NodeConfiguration struct {
	// Name identifying the node.
	Name string `yaml:"name"`

	// Address the transport binds and listens on.
	Address string `yaml:"address"`

	// Address the announcement listener binds on. Empty disables
	// the listener for this node.
	AnnounceAddress string `yaml:"announce_address"`

	// Transport timeout, default to 5 seconds when absent.
	Timeout time.Duration `yaml:"-"`

	// How many connections can be pooled per target.
	PoolSize uint8 `yaml:"pool_size"`

	// LogLevel represents a log level.
	LogLevel string `yaml:"log_level"`
}

// UnmarshalYAML parses the timeout with the Go duration syntax, the
// yaml package has no native notion of durations.
func (n *NodeConfiguration) UnmarshalYAML(value *yaml.Node) error {
	type plain NodeConfiguration
	raw := struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain: plain(*n)}

	if err := value.Decode(&raw); err != nil {
		return err
	}
	*n = NodeConfiguration(raw.plain)

	if len(raw.Timeout) == 0 {
		return nil
	}
	timeout, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %s: %w", raw.Timeout, err)
	}
	n.Timeout = timeout
	return nil
}

// LoadNodeConfiguration reads a node configuration from a YAML file.
func LoadNodeConfiguration(path string) (*NodeConfiguration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading configuration %s: %w", path, err)
	}

	configuration := &NodeConfiguration{
		Timeout:  5 * time.Second,
		PoolSize: 3,
		LogLevel: "ERROR",
	}
	if err = yaml.Unmarshal(content, configuration); err != nil {
		return nil, fmt.Errorf("failed parsing configuration %s: %w", path, err)
	}

	if err = ValidateNodeConfiguration(configuration); err != nil {
		return nil, err
	}
	return configuration, nil
}

// Validate a node configuration for errors, verifying for empty and
// invalid values.
func ValidateNodeConfiguration(configuration *NodeConfiguration) error {
	if len(configuration.Name) == 0 {
		return fmt.Errorf("empty name for node: %v", configuration)
	}

	if len(configuration.Address) == 0 {
		return fmt.Errorf("empty address for node: %v", configuration)
	}

	if configuration.Timeout > transportMaxTimeout {
		return fmt.Errorf("node timeout too high %v max is %v", configuration.Timeout, transportMaxTimeout)
	}

	return nil
}

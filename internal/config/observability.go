package config

// OtelConfig configures OTLP trace export. Traces are shipped to a local
// collector over OTLP HTTP; the collector owns authentication and
// forwarding.
type OtelConfig struct {
	// AgentHost is the host:port of the local OTLP HTTP collector.
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`

	// ServiceName tags exported spans.
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	// Environment tags spans with the deployment environment.
	Environment string `mapstructure:"environment" json:"environment"`

	// Enabled turns trace export on. Default off for local development.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

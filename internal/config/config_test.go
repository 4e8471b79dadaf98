package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		cleanup  func()
		wantErr  bool
		validate func(*testing.T, *Config)
	}{
		{
			name: "load default config",
			setup: func() {
				viper.Reset()
				setTestDefaults()
			},
			cleanup: func() {
				viper.Reset()
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30*time.Second, cfg.WSClient.PingInterval)
				assert.Equal(t, "", cfg.Redis.Addr)
				assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
				assert.Equal(t, "configs/fleet.yaml", cfg.Simulator.FleetTemplatePath)
			},
		},
		{
			name: "load config with environment variables",
			setup: func() {
				viper.Reset()
				setTestDefaults()
				os.Setenv("REDIS_ADDR", "redis:6379")
				os.Setenv("LOG_LEVEL", "debug")
			},
			cleanup: func() {
				os.Unsetenv("REDIS_ADDR")
				os.Unsetenv("LOG_LEVEL")
				viper.Reset()
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis:6379", cfg.Redis.Addr)
				assert.Equal(t, "debug", cfg.Log.Level)
			},
		},
		{
			name: "load config with custom values",
			setup: func() {
				viper.Reset()
				setTestDefaults()
				viper.Set("simulator.use_kafka_command_channel", true)
				viper.Set("simulator.fleet_claim_ttl", "90s")
			},
			cleanup: func() {
				viper.Reset()
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Simulator.UseKafkaCommandChannel)
				assert.Equal(t, 90*time.Second, cfg.Simulator.FleetClaimTTL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.cleanup()

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestConfig_GetMetricsAddr(t *testing.T) {
	cfg := &Config{
		Monitoring: MonitoringConfig{
			MetricsAddr: ":9090",
		},
	}

	addr := cfg.GetMetricsAddr()
	assert.Equal(t, ":9090", addr)
}

func TestConfig_GetHealthCheckAddr(t *testing.T) {
	cfg := &Config{
		Monitoring: MonitoringConfig{
			HealthCheckPort: 8081,
		},
	}

	addr := cfg.GetHealthCheckAddr()
	assert.Equal(t, ":8081", addr)
}

func TestConfig_ProfileHelpers(t *testing.T) {
	assert.True(t, (&Config{App: AppConfig{Profile: "prod"}}).IsProduction())
	assert.True(t, (&Config{App: AppConfig{Profile: "dev"}}).IsDevelopment())
	assert.True(t, (&Config{App: AppConfig{Profile: "local"}}).IsTest())
	assert.True(t, (&Config{App: AppConfig{Profile: "test"}}).IsTest())
	assert.False(t, (&Config{App: AppConfig{Profile: "dev"}}).IsTest())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		validate func(*testing.T, *Config)
	}{
		{
			name: "validate ws client config",
			setup: func() {
				viper.Reset()
				setTestDefaults()
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Greater(t, cfg.WSClient.HandshakeTimeout, time.Duration(0))
				assert.Greater(t, cfg.WSClient.PingInterval, time.Duration(0))
				assert.Greater(t, cfg.WSClient.ReconnectInterval, time.Duration(0))
			},
		},
		{
			name: "validate redis config",
			setup: func() {
				viper.Reset()
				setTestDefaults()
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.GreaterOrEqual(t, cfg.Redis.DB, 0)
				assert.Greater(t, cfg.Redis.PoolSize, 0)
			},
		},
		{
			name: "validate kafka config",
			setup: func() {
				viper.Reset()
				setTestDefaults()
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.NotEmpty(t, cfg.Kafka.Brokers)
				assert.NotEmpty(t, cfg.Kafka.ConsumerGroup)
				assert.Greater(t, cfg.Kafka.Producer.RetryMax, 0)
			},
		},
		{
			name: "validate simulator config",
			setup: func() {
				viper.Reset()
				setTestDefaults()
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.NotEmpty(t, cfg.Simulator.FleetTemplatePath)
				assert.NotEmpty(t, cfg.Simulator.CommandRequestTopic)
				assert.NotEmpty(t, cfg.Simulator.CommandResponseTopic)
				assert.Greater(t, cfg.Simulator.InProcessChannelBuffer, 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

// setTestDefaults mirrors setDefaults so TestLoad and TestConfigValidation
// don't depend on Load's own call to it running first.
func setTestDefaults() {
	viper.SetDefault("ws_client.handshake_timeout", "10s")
	viper.SetDefault("ws_client.ping_interval", "30s")
	viper.SetDefault("ws_client.pong_timeout", "10s")
	viper.SetDefault("ws_client.write_timeout", "10s")
	viper.SetDefault("ws_client.reconnect_interval", "5s")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 100)
	viper.SetDefault("redis.min_idle_conns", 10)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.consumer_group", "cs-simulator")
	viper.SetDefault("kafka.producer.retry_max", 3)
	viper.SetDefault("kafka.producer.return_successes", true)
	viper.SetDefault("kafka.producer.flush_frequency", "500ms")
	viper.SetDefault("kafka.consumer.return_errors", true)
	viper.SetDefault("kafka.consumer.offsets_initial", "oldest")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("monitoring.metrics_addr", ":9090")
	viper.SetDefault("monitoring.health_check_port", 8081)
	viper.SetDefault("monitoring.pprof_enabled", false)

	viper.SetDefault("simulator.fleet_template_path", "configs/fleet.yaml")
	viper.SetDefault("simulator.use_kafka_command_channel", false)
	viper.SetDefault("simulator.command_request_topic", "cs-simulator-commands")
	viper.SetDefault("simulator.command_response_topic", "cs-simulator-responses")
	viper.SetDefault("simulator.in_process_channel_buffer", 256)
	viper.SetDefault("simulator.fleet_claim_ttl", "30s")
	viper.SetDefault("simulator.perf_stats_log_path", "")
}

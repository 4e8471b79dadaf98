package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the simulator's root configuration tree, assembled by Load
// from configs/application.yaml, an optional per-profile overlay, and
// environment variables (highest priority).
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	PodID      string           `mapstructure:"pod_id"`
	WSClient   WSClientConfig   `mapstructure:"ws_client"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
}

// SimulatorConfig controls the fleet of simulated stations cmd/simulator
// boots: which template to expand, and whether commands arrive over the
// in-process channel or over Kafka.
type SimulatorConfig struct {
	FleetTemplatePath      string        `mapstructure:"fleet_template_path"`
	UseKafkaCommandChannel bool          `mapstructure:"use_kafka_command_channel"`
	CommandRequestTopic    string        `mapstructure:"command_request_topic"`
	CommandResponseTopic   string        `mapstructure:"command_response_topic"`
	InProcessChannelBuffer int           `mapstructure:"in_process_channel_buffer"`
	FleetClaimTTL          time.Duration `mapstructure:"fleet_claim_ttl"`
	PerfStatsLogPath       string        `mapstructure:"perf_stats_log_path"`
}

// AppConfig carries the application's own identity, reported in logs and
// exposed through the debug-config tool.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Profile string `mapstructure:"profile"`
}

// WSClientConfig tunes the keep-alive cadence every simulated station's
// wsclient.Client uses when it dials the CSMS. Unlike the gateway this
// config was copied from, there is no listener side to configure here:
// the simulator only ever dials out.
type WSClientConfig struct {
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongTimeout       time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
}

// RedisConfig configures the client backing the fleet registry's shared
// process-ownership directory.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig configures the optional Kafka-backed command channel.
type KafkaConfig struct {
	Brokers       []string       `mapstructure:"brokers"`
	ConsumerGroup string         `mapstructure:"consumer_group"`
	Producer      ProducerConfig `mapstructure:"producer"`
	Consumer      ConsumerConfig `mapstructure:"consumer"`
}

// ProducerConfig tunes the async producer KafkaChannel uses to publish
// ResponseEnvelopes.
type ProducerConfig struct {
	RetryMax       int           `mapstructure:"retry_max"`
	ReturnSuccess  bool          `mapstructure:"return_successes"`
	FlushFrequency time.Duration `mapstructure:"flush_frequency"`
}

// ConsumerConfig tunes the consumer group KafkaChannel joins to read
// RequestEnvelopes.
type ConsumerConfig struct {
	ReturnErrors   bool   `mapstructure:"return_errors"`
	OffsetsInitial string `mapstructure:"offsets_initial"`
}

// LogConfig configures the zerolog-backed logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	Async  bool   `mapstructure:"async"`
}

// MonitoringConfig configures the Prometheus metrics endpoint and the
// optional pprof mux.
type MonitoringConfig struct {
	MetricsAddr     string `mapstructure:"metrics_addr"`
	HealthCheckPort int    `mapstructure:"health_check_port"`
	PprofEnabled    bool   `mapstructure:"pprof_enabled"`
}

// Load reads configs/application.yaml, overlays configs/application-{profile}.yaml
// when a profile is set, and finally applies environment variable
// overrides, which take highest priority.
func Load() (*Config, error) {
	setDefaults()

	profile := getProfile()
	fmt.Printf("Loading configuration for profile: %s\n", profile)

	if err := loadConfigFile("application"); err != nil {
		fmt.Printf("Warning: Could not load default config file: %v\n", err)
	}

	if profile != "" {
		configName := fmt.Sprintf("application-%s", profile)
		if err := loadConfigFile(configName); err != nil {
			fmt.Printf("Warning: Could not load profile config file %s: %v\n", configName, err)
		}
	}

	setupEnvironmentVariables()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.App.Profile = profile

	printConfigInfo(&cfg)

	return &cfg, nil
}

// getProfile resolves the active profile: APP_PROFILE if set, otherwise the
// app.profile value viper holds at call time, otherwise "local". Load calls
// it before reading any config file, so an app.profile in application.yaml
// does not select the profile overlay.
func getProfile() string {
	if profile := os.Getenv("APP_PROFILE"); profile != "" {
		return profile
	}
	if profile := viper.GetString("app.profile"); profile != "" {
		return profile
	}
	return "local"
}

func loadConfigFile(configName string) error {
	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	return viper.MergeInConfig()
}

// setupEnvironmentVariables binds the handful of settings that need an
// unprefixed env var name, then enables viper's automatic dotted-key
// lookup (app.profile -> APP_PROFILE, and so on) for everything else.
func setupEnvironmentVariables() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("monitoring.health_check_port", "MONITORING_HEALTH_CHECK_PORT")
	viper.BindEnv("app.profile", "APP_PROFILE")
	viper.BindEnv("pod_id", "POD_ID")

	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		for i, broker := range brokers {
			brokers[i] = strings.TrimSpace(broker)
		}
		viper.Set("kafka.brokers", brokers)
	}
}

func printConfigInfo(cfg *Config) {
	fmt.Printf("=== Configuration Loaded ===\n")

	fmt.Printf("App:\n")
	fmt.Printf("  Name: %s\n", cfg.App.Name)
	fmt.Printf("  Version: %s\n", cfg.App.Version)
	fmt.Printf("  Profile: %s\n", cfg.App.Profile)
	fmt.Printf("  Pod ID: %s\n", cfg.PodID)

	fmt.Printf("WS Client:\n")
	fmt.Printf("  Handshake Timeout: %v\n", cfg.WSClient.HandshakeTimeout)
	fmt.Printf("  Ping Interval: %v\n", cfg.WSClient.PingInterval)
	fmt.Printf("  Pong Timeout: %v\n", cfg.WSClient.PongTimeout)
	fmt.Printf("  Reconnect Interval: %v\n", cfg.WSClient.ReconnectInterval)

	fmt.Printf("Redis:\n")
	fmt.Printf("  Address: %s\n", cfg.Redis.Addr)
	fmt.Printf("  Database: %d\n", cfg.Redis.DB)
	fmt.Printf("  Pool Size: %d\n", cfg.Redis.PoolSize)
	fmt.Printf("  Min Idle Conns: %d\n", cfg.Redis.MinIdleConns)
	fmt.Printf("  Dial Timeout: %v\n", cfg.Redis.DialTimeout)

	fmt.Printf("Kafka:\n")
	fmt.Printf("  Brokers: %v\n", cfg.Kafka.Brokers)
	fmt.Printf("  Consumer Group: %s\n", cfg.Kafka.ConsumerGroup)
	fmt.Printf("  Producer Retry Max: %d\n", cfg.Kafka.Producer.RetryMax)
	fmt.Printf("  Producer Return Success: %v\n", cfg.Kafka.Producer.ReturnSuccess)
	fmt.Printf("  Producer Flush Frequency: %v\n", cfg.Kafka.Producer.FlushFrequency)
	fmt.Printf("  Consumer Offsets Initial: %s\n", cfg.Kafka.Consumer.OffsetsInitial)

	fmt.Printf("Log:\n")
	fmt.Printf("  Level: %s\n", cfg.Log.Level)
	fmt.Printf("  Format: %s\n", cfg.Log.Format)
	fmt.Printf("  Output: %s\n", cfg.Log.Output)
	fmt.Printf("  Async: %v\n", cfg.Log.Async)

	fmt.Printf("Monitoring:\n")
	fmt.Printf("  Metrics Address: %s\n", cfg.Monitoring.MetricsAddr)
	fmt.Printf("  Health Check Port: %d\n", cfg.Monitoring.HealthCheckPort)
	fmt.Printf("  Pprof Enabled: %v\n", cfg.Monitoring.PprofEnabled)

	fmt.Printf("Simulator:\n")
	fmt.Printf("  Fleet Template Path: %s\n", cfg.Simulator.FleetTemplatePath)
	fmt.Printf("  Use Kafka Command Channel: %v\n", cfg.Simulator.UseKafkaCommandChannel)
	fmt.Printf("  In-Process Channel Buffer: %d\n", cfg.Simulator.InProcessChannelBuffer)
	fmt.Printf("  Fleet Claim TTL: %v\n", cfg.Simulator.FleetClaimTTL)

	fmt.Printf("============================\n")
}

func setDefaults() {
	viper.SetDefault("app.name", "cs-simulator")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.profile", "local")

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
	viper.SetDefault("log.async", false)

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

// GetMetricsAddr returns the address the Prometheus /metrics endpoint
// listens on.
func (c *Config) GetMetricsAddr() string {
	return c.Monitoring.MetricsAddr
}

// GetHealthCheckAddr returns the address the health check endpoint
// listens on.
func (c *Config) GetHealthCheckAddr() string {
	return fmt.Sprintf(":%d", c.Monitoring.HealthCheckPort)
}

// IsProduction reports whether the active profile is "prod".
func (c *Config) IsProduction() bool {
	return c.App.Profile == "prod"
}

// IsDevelopment reports whether the active profile is "dev".
func (c *Config) IsDevelopment() bool {
	return c.App.Profile == "dev"
}

// IsTest reports whether the active profile is "test" or "local".
func (c *Config) IsTest() bool {
	return c.App.Profile == "test" || c.App.Profile == "local"
}

package main

import (
	"fmt"
	"os"

	"github.com/charging-platform/cs-simulator/internal/config"
)

// debug-config loads the simulator's configuration the same way
// cmd/simulator does and prints the result, to sanity-check a profile or
// environment-variable overlay before pointing a real fleet at it.
func main() {
	fmt.Println("=== Charging Station Simulator Configuration Test ===")

	fmt.Println("\n--- Environment Variables ---")
	envVars := []string{
		"APP_PROFILE",
		"REDIS_ADDR",
		"KAFKA_BROKERS",
		"LOG_LEVEL",
		"MONITORING_HEALTH_CHECK_PORT",
		"POD_ID",
	}

	for _, env := range envVars {
		value := os.Getenv(env)
		if value != "" {
			fmt.Printf("%s = %s\n", env, value)
		} else {
			fmt.Printf("%s = (not set)\n", env)
		}
	}

	fmt.Println("\n--- Loading Configuration ---")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n--- Final Configuration ---")
	fmt.Printf("App Name: %s\n", cfg.App.Name)
	fmt.Printf("App Version: %s\n", cfg.App.Version)
	fmt.Printf("App Profile: %s\n", cfg.App.Profile)
	fmt.Printf("Pod ID: %s\n", cfg.PodID)
	fmt.Printf("Redis Address: %s\n", cfg.Redis.Addr)
	fmt.Printf("Kafka Brokers: %v\n", cfg.Kafka.Brokers)
	fmt.Printf("Log Level: %s\n", cfg.Log.Level)
	fmt.Printf("Metrics Address: %s\n", cfg.GetMetricsAddr())
	fmt.Printf("Health Check Address: %s\n", cfg.GetHealthCheckAddr())
	fmt.Printf("Fleet Template Path: %s\n", cfg.Simulator.FleetTemplatePath)
	fmt.Printf("Use Kafka Command Channel: %v\n", cfg.Simulator.UseKafkaCommandChannel)
	fmt.Printf("Fleet Claim TTL: %s\n", cfg.Simulator.FleetClaimTTL)

	fmt.Println("\n--- Environment Check ---")
	fmt.Printf("Is Development: %v\n", cfg.IsDevelopment())
	fmt.Printf("Is Test: %v\n", cfg.IsTest())
	fmt.Printf("Is Production: %v\n", cfg.IsProduction())

	fmt.Println("\n=== Configuration Test Complete ===")
}

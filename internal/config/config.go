package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Attack    AttackConfig
	Generator GeneratorConfig
	Debug     bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
	// MaxJobs bounds the number of attacks running at once. Each full attack
	// holds two 2^24-entry tables in memory.
	MaxJobs int
}

// AttackConfig holds meet-in-the-middle attack configuration
type AttackConfig struct {
	Workers int
	KeyBits int
}

// GeneratorConfig holds pair generator configuration
type GeneratorConfig struct {
	Seed int64
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    getEnv("PRESENT24_HOST", "0.0.0.0"),
			Port:    getEnvInt("PRESENT24_PORT", 8024),
			MaxJobs: getEnvInt("PRESENT24_MAX_JOBS", 1),
		},
		Attack: AttackConfig{
			Workers: getEnvInt("PRESENT24_WORKERS", runtime.NumCPU()),
			KeyBits: getEnvInt("PRESENT24_KEY_BITS", 24),
		},
		Generator: GeneratorConfig{
			Seed: int64(getEnvInt("PRESENT24_SEED", 1)),
		},
		Debug: getEnvBool("PRESENT24_DEBUG", false),
	}
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`
Server: %s (max jobs %d)
Attack: %d workers, %d-bit key space
Generator seed: %d
Debug: %t`,
		c.Addr(), c.Server.MaxJobs,
		c.Attack.Workers, c.Attack.KeyBits,
		c.Generator.Seed,
		c.Debug,
	)
}

// pkg/config/env.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables that override scenario settings
const (
	EnvScenarioName  = "ASTEROIDS_SCENARIO_NAME"
	EnvWorldWidth    = "ASTEROIDS_WORLD_WIDTH"
	EnvWorldHeight   = "ASTEROIDS_WORLD_HEIGHT"
	EnvTimeStep      = "ASTEROIDS_TIME_STEP"
	EnvDuration      = "ASTEROIDS_DURATION"
	EnvMaxBounces    = "ASTEROIDS_MAX_BOUNCES"
	EnvStopWhenEmpty = "ASTEROIDS_STOP_WHEN_EMPTY"
	EnvTimeout       = "ASTEROIDS_TIMEOUT"
)

// ApplyEnvironmentOverrides replaces scenario settings with the values of
// the ASTEROIDS_* environment variables that are set, then validates the
// result. Unparsable values are ignored.
func ApplyEnvironmentOverrides(config *SimulationConfig) error {
	if config == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}

	config.Name = getEnvOrDefault(EnvScenarioName, config.Name)
	config.World.Width = getEnvAsFloatOrDefault(EnvWorldWidth, config.World.Width)
	config.World.Height = getEnvAsFloatOrDefault(EnvWorldHeight, config.World.Height)
	config.Run.TimeStep = getEnvAsFloatOrDefault(EnvTimeStep, config.Run.TimeStep)
	config.Run.Duration = getEnvAsFloatOrDefault(EnvDuration, config.Run.Duration)
	config.Run.StopWhenEmpty = getEnvAsBoolOrDefault(EnvStopWhenEmpty, config.Run.StopWhenEmpty)
	config.Run.Timeout = getEnvAsDurationOrDefault(EnvTimeout, config.Run.Timeout)
	config.Physics.MaxBounces = getEnvAsIntOrDefault(EnvMaxBounces, config.Physics.MaxBounces)

	return config.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

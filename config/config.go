package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

func loadEnv() {
	loadOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "No .env file loaded: %v\n", err)
		}
	})
}

// Config returns the value of a required environment variable. Exits the
// process if the variable is not set.
func Config(envVar string) string {
	loadEnv()

	envVarValue := os.Getenv(envVar)
	if envVarValue == "" {
		fmt.Fprintf(os.Stderr, "%s not set\n", envVar)
		os.Exit(1)
	}

	return envVarValue
}

// Optional returns the value of an environment variable, falling back to the
// given default when unset.
func Optional(envVar, fallback string) string {
	loadEnv()

	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

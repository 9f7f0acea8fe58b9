package env

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/portal to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			// Successfully loaded env file
			return
		}
	}

	// If we get here, no env file was found
	panic("No .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

// APIBaseURL returns the platform backend host. This is the only externally
// configurable input to the billing subsystem.
func APIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:8080"), "/")
}

// PublicDomain returns the externally visible origin of the portal, used to
// build the provider's return and cancel redirect URLs.
func PublicDomain() string {
	return strings.TrimRight(GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
}

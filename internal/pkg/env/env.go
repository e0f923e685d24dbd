package env

import (
	"os"

	"github.com/joho/godotenv"
)

// fileVars holds the values read from the .env file. Real environment
// variables always win over it so Docker and CI can override the file.
var fileVars map[string]string

// Relative to the binary's working directory; covers running from the
// project root, from cmd/picflux, and from cmd/migrate.
var envFilePaths = []string{".env", "../../.env", "../../../.env"}

// GetEnv resolves key from the process environment first, then the loaded
// .env file, then falls back to def.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := fileVars[key]; ok && val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds. The app refuses to start
// without one so a misplaced working directory fails loudly instead of
// running with defaults.
func SetupEnvFile() {
	for _, path := range envFilePaths {
		vars, err := godotenv.Read(path)
		if err == nil {
			fileVars = vars
			return
		}
	}
	panic("no .env file found in any of the expected locations")
}

// IsDev reports whether the app runs in development mode. Anything other
// than an explicit APP_ENV=dev counts as production.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

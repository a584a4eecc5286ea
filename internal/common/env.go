package common

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvironment loads .env files from the working directory and from the
// directory of the executable. It returns the files that were loaded; a
// missing file is not an error.
func LoadEnvironment() []string {
	var loaded []string

	if err := godotenv.Load(); err == nil {
		loaded = append(loaded, ".env")
	}

	execPath, err := os.Executable()
	if err != nil {
		return loaded
	}
	envPath := filepath.Join(filepath.Dir(execPath), ".env")
	if err := godotenv.Load(envPath); err == nil {
		loaded = append(loaded, envPath)
	}
	return loaded
}

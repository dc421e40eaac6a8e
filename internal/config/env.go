package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DotEnvFileName is the dotenv file read from the working directory.
const DotEnvFileName = ".env"

// dotEnvSourceKey records in the env map which .env file was merged. It is
// not a valid variable name, so it cannot collide with a real one.
const dotEnvSourceKey = "=sitecms.dotenv"

// Environ returns environ as a map with the variables from workDir/.env
// merged underneath: a process variable always wins over the file.
// A missing .env file is not an error.
func Environ(workDir string, environ []string) (map[string]string, error) {
	env := make(map[string]string, len(environ))

	path := filepath.Join(workDir, DotEnvFileName)

	fileEnv, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileEnv {
			env[k] = v
		}

		env[dotEnvSourceKey] = path
	case errors.Is(err, os.ErrNotExist):
		// optional
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = v
		}
	}

	return env, nil
}

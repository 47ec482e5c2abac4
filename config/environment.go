package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"
)

const (
	// EnvironmentDevelopment is the environment used when APP_ENV is unset.
	EnvironmentDevelopment = environmentDevelopment
	// EnvironmentProduction identifies production deployments.
	EnvironmentProduction = environmentProduction
	// EnvironmentStaging identifies staging deployments.
	EnvironmentStaging = environmentStaging
)

var environmentAliases = map[string]string{
	"prod":  environmentProduction,
	"stag":  environmentStaging,
	"stage": environmentStaging,
	"dev":   environmentDevelopment,
}

func getAppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// AppEnvironment returns the normalised APP_ENV value.
func AppEnvironment() string {
	return getAppEnvironment()
}

// ResolvePath picks config/config.<env>.yml over the default path when the
// caller did not ask for a specific file and the environment file exists.
// An explicit path other than defaultPath is always returned unchanged.
func ResolvePath(path, defaultPath string) string {
	if path == "" {
		path = defaultPath
	}
	if path != defaultPath {
		return path
	}

	ext := filepath.Ext(defaultPath)
	envPath := strings.TrimSuffix(defaultPath, ext) + "." + getAppEnvironment() + ext
	if _, err := os.Stat(envPath); err == nil {
		return envPath
	}
	return path
}

// IsProductionLike reports whether env should be strict about configuration
// problems such as a missing store root.
func IsProductionLike(env string) bool {
	switch env {
	case environmentProduction, environmentStaging:
		return true
	default:
		return false
	}
}

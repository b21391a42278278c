package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/mongostore"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Pipedrive
	PipedriveAPIToken string
	PipedriveBaseURL  string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Default profile name; the attach command's --profile flag overrides it.
	Profile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// command-line flags (handled by cobra), environment variables, .env files,
// then defaults.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Optional config file (~/.linker.yaml or ./.linker.yaml)
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".linker")
	}
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no_color"),

		PipedriveAPIToken: viper.GetString("pipedrive_api_token"),
		PipedriveBaseURL:  viper.GetString("pipedrive_base_url"),

		MongoURI:        viper.GetString("mongodb_uri"),
		MongoDatabase:   viper.GetString("mongodb_database"),
		MongoCollection: viper.GetString("mongodb_collection"),

		Profile: viper.GetString("linker_profile"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.MongoDatabase == "" {
		config.MongoDatabase = "production"
	}
	if config.MongoCollection == "" {
		config.MongoCollection = "submissions"
	}

	return config, nil
}

// ValidateConnections checks the settings required to reach external
// systems. Called by commands that actually connect, not at startup.
func (c *Config) ValidateConnections() error {
	if c.PipedriveAPIToken == "" {
		return errors.NewConfigError("config", "PIPEDRIVE_API_TOKEN is required", nil)
	}
	if c.MongoURI == "" {
		return errors.NewConfigError("config", "MONGODB_URI is required", nil)
	}
	return nil
}

// MongoConfig returns the MongoDB connection settings.
func (c *Config) MongoConfig() mongostore.Config {
	return mongostore.Config{
		URI:        c.MongoURI,
		Database:   c.MongoDatabase,
		Collection: c.MongoCollection,
	}
}

// UpdateFromFlags updates config values from parsed command flags. Flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env files from the current directory. Missing files
// are fine; existing environment variables are never overridden.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

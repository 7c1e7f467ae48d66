// Package config loads the CLI's connection settings, layered from a YAML
// config file, .env/.env.local, and environment variables — the teacher's
// cli/internal/config stack (viper + godotenv + go-homedir + afero),
// re-themed from Prisma schema/output paths to a target database.
package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem the CLI probes for .env files; swappable in
// tests.
var AppFs = afero.NewOsFs()

// Config holds the connection settings for either supported dialect.
// Exactly one of SQLitePath or the MariaDB fields is expected to be set,
// selected by Dialect.
type Config struct {
	Dialect string // "sqlite" or "mariadb"

	SQLitePath string

	MariaDBHost     string
	MariaDBPort     int
	MariaDBUser     string
	MariaDBPassword string
	MariaDBDatabase string
}

// Load reads configuration from .database.yaml (cwd, then the home
// directory, then ~/.config/database) and from env vars under the
// DATABASE_ prefix, which take precedence over the file. .env and
// .env.local in the current directory are loaded into the environment
// first: .env only sets variables that are not already set, while
// .env.local overrides existing ones.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".database")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "database"))

	viper.SetEnvPrefix("DATABASE")
	viper.AutomaticEnv()

	viper.SetDefault("dialect", "sqlite")
	viper.SetDefault("sqlite_path", "./database.db")
	viper.SetDefault("mariadb_port", 3306)

	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	return &Config{
		Dialect:         viper.GetString("dialect"),
		SQLitePath:      viper.GetString("sqlite_path"),
		MariaDBHost:     viper.GetString("mariadb_host"),
		MariaDBPort:     viper.GetInt("mariadb_port"),
		MariaDBUser:     viper.GetString("mariadb_user"),
		MariaDBPassword: viper.GetString("mariadb_password"),
		MariaDBDatabase: viper.GetString("mariadb_database"),
	}, nil
}

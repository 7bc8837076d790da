// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	migrateOnly    = pflag.Bool("migrate-only", false, "Runs database migrations and exits")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBTypes   = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// MigrateOnly reports whether the server should exit after migrations.
func MigrateOnly() bool {
	return *migrateOnly
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("db.type", "db_type")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.endpoint", "aws_endpoint")

	v.BindEnv("mcp.rate_limit.rps", "mcp_rate_limit_rps")
	v.BindEnv("mcp.rate_limit.burst", "mcp_rate_limit_burst")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")

	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("upload.max_size", 25)

	v.SetDefault("mcp.rate_limit.rps", 10)
	v.SetDefault("mcp.rate_limit.burst", 20)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBTypes, v.GetString("db.type")) {
		return errors.New("invalid database type provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetString("aws.access_key") == "" {
		return errors.New("access key can't be empty")
	}
	if v.GetString("aws.secret_access_key") == "" {
		return errors.New("secret access key can't be empty")
	}
	if v.GetString("aws.bucket") == "" {
		return errors.New("bucket can't be empty")
	}
	if v.GetString("aws.region") == "" && v.GetString("aws.endpoint") == "" {
		return errors.New("either a region or a custom endpoint must be provided")
	}

	if v.GetInt("mcp.rate_limit.rps") <= 0 || v.GetInt("mcp.rate_limit.burst") <= 0 {
		return errors.New("rate limit values must be bigger than 0")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

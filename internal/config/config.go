// Package config loads process configuration from the environment.
//
// An optional .env file in the working directory is read first. Variables
// already set in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	Env        string // APP_ENV: "development" (default) or "production"
	Port       int
	JWTSecret  string
	CORSOrigin string
	Database   Database
}

// Database selects and parameterizes the storage backend. Which fields are
// read depends on Type; see backend.New.
type Database struct {
	Type string // DB_TYPE

	// document backend
	URI  string // DB_CONNECT
	Name string // DB_NAME, also the postgres database name

	// relational backend
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
	Path     string // sqlite file

	Timeout time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Load passes os.Getenv;
// tests pass a map.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	port, err := strconv.Atoi(get("PORT", "4000"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid PORT: %w", err)
	}
	dbPort, err := strconv.Atoi(get("DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid DB_PORT: %w", err)
	}
	timeout, err := time.ParseDuration(get("DB_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid DB_TIMEOUT: %w", err)
	}

	return Config{
		Env:        get("APP_ENV", "development"),
		Port:       port,
		JWTSecret:  getenv("JWT_SECRET"),
		CORSOrigin: get("CORS_ORIGIN", "http://localhost:3000"),
		Database: Database{
			Type:     get("DB_TYPE", "mongodb"),
			URI:      getenv("DB_CONNECT"),
			Name:     get("DB_NAME", "playlister"),
			Host:     get("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			SSLMode:  get("DB_SSLMODE", "disable"),
			Path:     get("DB_PATH", "data/playlister.db"),
			Timeout:  timeout,
		},
	}, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool { return c.Env == "production" }

// PostgresDSN renders the relational connection parameters as a postgres
// URL. An explicit DB_CONNECT that already is a postgres URL wins.
func (d Database) PostgresDSN() string {
	if strings.HasPrefix(d.URI, "postgres://") || strings.HasPrefix(d.URI, "postgresql://") {
		return d.URI
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	if d.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(d.Timeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

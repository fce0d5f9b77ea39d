package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	APITimeout      time.Duration `yaml:"timeout"`
	DatabasePath    string        `yaml:"database_path"`
	AccessDuration  time.Duration `yaml:"access_token_duration"`
	RefreshDuration time.Duration `yaml:"refresh_token_duration"`
	OTPExpiry       time.Duration `yaml:"otp_expiry"`
	Mail            MailConfig    `yaml:"mail"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoadConfig builds the configuration from env vars (a .env file is honored
// when present) and then overlays the optional YAML file at path.
func LoadConfig(path string) (*Config, error) {
	// best-effort: absence of a .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            getEnv("CREO_ADDR", ":8080"),
		JWTSecret:       getEnv("CREO_JWT_SECRET", insecureJWTSecret),
		APITimeout:      15 * time.Second,
		DatabasePath:    getEnv("CREO_DATABASE_PATH", "creo.db"),
		AccessDuration:  24 * time.Hour,
		RefreshDuration: 30 * 24 * time.Hour,
		OTPExpiry:       5 * time.Minute,
		Mail: MailConfig{
			Host:     getEnv("CREO_MAIL_HOST", "smtp.gmail.com"),
			Port:     getEnv("CREO_MAIL_PORT", "465"),
			Username: os.Getenv("CREO_MAIL_USERNAME"),
			Password: os.Getenv("CREO_MAIL_PASSWORD"),
			From:     getEnv("CREO_MAIL_FROM", os.Getenv("CREO_MAIL_USERNAME")),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach a deployed environment.
// The insecure default JWT secret is allowed only when CREO_ENV=development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.JWTSecret == insecureJWTSecret && os.Getenv("CREO_ENV") != "development" {
		return fmt.Errorf("refusing to run with the default jwt_secret outside development")
	}
	if c.AccessDuration <= 0 || c.RefreshDuration <= 0 {
		return fmt.Errorf("token durations must be positive")
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("otp_expiry must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

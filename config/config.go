package config

import (
	"log"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv          string `env:"APP_ENV" envDefault:"development"`
	Port            string `env:"PORT" envDefault:"8080"`
	DBUser          string `env:"DB_USER"`
	DBPassword      string `env:"DB_PASSWORD"`
	DBHost          string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort          string `env:"DB_PORT" envDefault:"3306"`
	DBName          string `env:"DB_NAME" envDefault:"campaign"`
	JWTSecretKey    string `env:"JWT_SECRET_KEY"`
	TokenTTLMinutes int    `env:"TOKEN_TTL_MINUTES" envDefault:"480"`
	PatientIDPrefix string `env:"PATIENT_ID_PREFIX" envDefault:"TIKO"`
	ExportBucket    string `env:"EXPORT_BUCKET"`
}

var (
	cfg  *Config
	once sync.Once
)

// LoadConfig reads .env (when present) and parses the environment into the
// shared Config singleton.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		cfg = &Config{}
		if err := env.Parse(cfg); err != nil {
			log.Fatalf("Failed to parse environment: %v", err)
		}
	})
	return cfg
}

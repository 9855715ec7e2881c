package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded once at startup.
type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	FrontendURL string
	UploadDir   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	OpenAIAPIKey string
	OpenAIModel  string
}

// Load reads configuration from the environment, applying defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Env:         getEnv("ENV", "development"),
		DatabaseDSN: getEnv("DB_DSN", "meditrack.db"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4"),
	}
}

// IsProduction reports whether the server runs in a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TwilioConfigured reports whether all Twilio credentials are set.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

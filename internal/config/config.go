package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string `validate:"required"`
	// StoreDriver selects the document store backend.
	StoreDriver       string `validate:"required,oneof=firestore mongo file"`
	FirebaseProjectID string
	CredentialsFile   string
	// StorageBucket names the avatar bucket; empty disables avatar uploads.
	StorageBucket string
	MongoURI      string
	MongoDB       string
	DataDir       string
	// RequestTimeout bounds every store call made on behalf of one request.
	// Nothing upstream mandates a value, so a conservative ceiling is used.
	RequestTimeout time.Duration
}

var validate = validator.New()

func Load() (*Config, error) {
	// Local runs keep settings in .env; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:     getEnv("SERVER_ADDRESS", ":8080"),
		StoreDriver:       getEnv("STORE_DRIVER", "firestore"),
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsFile:   getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", ""),
		MongoURI:          getEnv("MONGO_URI", ""),
		MongoDB:           getEnv("MONGO_DB", "peerdex"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		RequestTimeout:    10 * time.Second,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

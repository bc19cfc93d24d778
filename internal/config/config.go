package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	DestDriver  string // "mysql" or "postgres"
	DestDSN     string
	NotionURL   string
	Environment string
	AppId       string
	SkipAuth    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "notisync"),
		DestDriver:  getEnv("DEST_DRIVER", "mysql"),
		DestDSN:     getEnv("DEST_DSN", "root:root@tcp(localhost:3306)/notisync?parseTime=true"),
		NotionURL:   getEnv("NOTION_BASE_URL", "https://api.notion.com/v1"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "notisync"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

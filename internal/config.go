package internal

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Server-wide constants
const (
	ChatPort    = 1101 // multicast port for document chat
	MTU         = 1500 // Ethernet MTU, chat messages are truncated to this
	MaxSections = 1024 // max number of sections for a document
)

type Config struct {
	Port        string // client listen port
	DocsRoot    string // root directory for section files
	Storage     string // "file" or "s3"
	CleanOnExit bool   // delete the docs tree on shutdown

	// Postgres mirror, optional
	PgHost     string
	PgPort     string
	PgUser     string
	PgPassword string
	PgName     string

	// S3 backend, used when Storage is "s3"
	Bucket string
	Region string
}

func NewConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	return &Config{
		Port:        getEnv("SERVER_PORT", "1100"),
		DocsRoot:    getEnv("DOCS_ROOT", "docs"),
		Storage:     getEnv("STORAGE_BACKEND", "file"),
		CleanOnExit: getEnv("CLEAN_ON_EXIT", "false") == "true",
		PgHost:      os.Getenv("POSTGRESS_HOST"),
		PgPort:      os.Getenv("POSTGRESS_PORT"),
		PgUser:      os.Getenv("POSTGRESS_USER"),
		PgPassword:  os.Getenv("POSTGRESS_PASSWORD"),
		PgName:      os.Getenv("POSTGRESS_DB_NAME"),
		Bucket:      os.Getenv("S3_BUCKET_NAME"),
		Region:      os.Getenv("AWS_REGION"),
	}
}

// HasPostgres reports whether the Postgres mirror is configured.
func (c *Config) HasPostgres() bool {
	return c.PgHost != "" && c.PgPort != "" && c.PgUser != "" && c.PgName != ""
}

func getEnv(name, fallback string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return fallback
}

// GetEnvInt reads an integer environment variable with a fallback.
func GetEnvInt(name string, fallback int) int {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", name, val, fallback)
		return fallback
	}
	return n
}

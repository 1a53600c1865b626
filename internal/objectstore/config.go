package objectstore

import (
	"os"
	"strconv"
	"time"
)

// Backend selects the storage implementation
type Backend string

const (
	BackendLocal     Backend = "local"
	BackendS3        Backend = "s3"
	BackendAzure     Backend = "azure"
	BackendFederated Backend = "federated"
)

const (
	minURLTTL = 15 * time.Minute
	maxURLTTL = 60 * time.Minute
)

// Config holds object storage configuration for all backends
type Config struct {
	Backend Backend
	URLTTL  time.Duration

	// local
	LocalDir      string
	LocalBaseURL  string
	SigningSecret string

	// s3
	S3Bucket    string
	S3Region    string
	S3KeyPrefix string

	// azure
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string

	// federated
	SidecarEndpoint string
	FederatedBucket string
}

// LoadConfig loads object storage configuration from the environment
func LoadConfig() Config {
	ttlMinutes, err := strconv.Atoi(getEnv("OBJECT_URL_TTL_MINUTES", "15"))
	if err != nil {
		ttlMinutes = 15
	}
	ttl := time.Duration(ttlMinutes) * time.Minute
	if ttl < minURLTTL {
		ttl = minURLTTL
	}
	if ttl > maxURLTTL {
		ttl = maxURLTTL
	}

	return Config{
		Backend: Backend(getEnv("STORAGE_BACKEND", "local")),
		URLTTL:  ttl,

		LocalDir:      getEnv("LOCAL_STORAGE_DIR", "./data/objects"),
		LocalBaseURL:  getEnv("LOCAL_STORAGE_BASE_URL", "http://localhost:8080"),
		SigningSecret: os.Getenv("OBJECT_SIGNING_SECRET"),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "eu-central-1"),
		S3KeyPrefix: os.Getenv("S3_KEY_PREFIX"),

		AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:   getEnv("AZURE_STORAGE_CONTAINER", "attachments"),

		SidecarEndpoint: getEnv("STORAGE_SIDECAR_ENDPOINT", "http://127.0.0.1:1106"),
		FederatedBucket: os.Getenv("FEDERATED_STORAGE_BUCKET"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

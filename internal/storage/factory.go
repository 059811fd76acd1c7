package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fotoshare/gallery/internal/config"
)

// New selects and constructs exactly one backend from configuration. The
// returned instance lives for the whole process; nothing else in the system
// is aware of which backend is active.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageMode {
	case "local":
		return NewLocal(cfg.StorageRoot, cfg.BaseURL, cfg.AccessToken)
	case "cloud":
		if cfg.StorageBucket == "" {
			return nil, fmt.Errorf("%w: cloud mode requires STORAGE_BUCKET", ErrConfig)
		}
		accessKey, secretKey, err := resolveCredentials(cfg)
		if err != nil {
			return nil, err
		}
		return NewMinio(cfg.StorageEndpoint, accessKey, secretKey, cfg.StorageBucket, cfg.StorageRegion, cfg.StorageUseSSL, cfg.SignedURLTTL)
	default:
		return nil, fmt.Errorf("%w: unknown storage mode %q", ErrConfig, cfg.StorageMode)
	}
}

// keyPair is the JSON shape of file- and inline-provided credentials.
type keyPair struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// resolveCredentials returns the cloud access/secret pair from, in order:
// explicit env keys, a JSON key file, or a base64-encoded inline JSON blob.
func resolveCredentials(cfg *config.Config) (string, string, error) {
	if cfg.StorageAccessKey != "" && cfg.StorageSecretKey != "" {
		return cfg.StorageAccessKey, cfg.StorageSecretKey, nil
	}

	if cfg.StorageCredentialsFile != "" {
		raw, err := os.ReadFile(cfg.StorageCredentialsFile)
		if err != nil {
			return "", "", fmt.Errorf("%w: read credentials file: %v", ErrConfig, err)
		}
		return parseKeyPair(raw)
	}

	if cfg.StorageCredentialsB64 != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.StorageCredentialsB64)
		if err != nil {
			return "", "", fmt.Errorf("%w: decode inline credentials: %v", ErrConfig, err)
		}
		return parseKeyPair(raw)
	}

	return "", "", fmt.Errorf("%w: cloud mode requires credentials (keys, file, or inline blob)", ErrConfig)
}

func parseKeyPair(raw []byte) (string, string, error) {
	var kp keyPair
	if err := json.Unmarshal(raw, &kp); err != nil {
		return "", "", fmt.Errorf("%w: parse credentials: %v", ErrConfig, err)
	}
	if kp.AccessKey == "" || kp.SecretKey == "" {
		return "", "", fmt.Errorf("%w: credentials missing accessKey/secretKey", ErrConfig)
	}
	return kp.AccessKey, kp.SecretKey, nil
}

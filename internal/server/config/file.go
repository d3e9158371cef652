package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/recyclequest/internal/flagx"
	"github.com/dmitrijs2005/recyclequest/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for decoding config files. Durations accept
// strings such as "30m". Zero values leave the current setting untouched.
type fileConfig struct {
	EndpointAddrHTTP string   `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC string   `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN      string   `json:"database_dsn" yaml:"database_dsn"`
	Environment      string   `json:"environment" yaml:"environment"`
	LogLevel         string   `json:"log_level" yaml:"log_level"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins"`

	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	PasswordHashAlgorithm       string         `json:"password_hash_algorithm" yaml:"password_hash_algorithm"`
	PasswordHashCost            int            `json:"password_hash_cost" yaml:"password_hash_cost"`

	StorageBackend string         `json:"storage_backend" yaml:"storage_backend"`
	S3RootUser     string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3UseSSL       *bool          `json:"s3_use_ssl" yaml:"s3_use_ssl"`
	PublicBaseURL  string         `json:"public_base_url" yaml:"public_base_url"`
	PresignExpiry  timex.Duration `json:"presign_expiry" yaml:"presign_expiry"`
	MaxFileSize    int64          `json:"max_file_size" yaml:"max_file_size"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
}

// parseFile overlays the file named by -c/-config onto config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. No flag
// means no file.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *fileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}

	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	if c.PasswordHashCost != 0 {
		config.PasswordHashCost = c.PasswordHashCost
	}

	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UseSSL != nil {
		config.S3UseSSL = *c.S3UseSSL
	}
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	if c.PresignExpiry.Duration != 0 {
		config.PresignExpiry = c.PresignExpiry.Duration
	}
	if c.MaxFileSize != 0 {
		config.MaxFileSize = c.MaxFileSize
	}

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

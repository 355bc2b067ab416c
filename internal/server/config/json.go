package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/flagx"
	"github.com/dmitrijs2005/projecthub/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "15m" style strings or integer nanoseconds. Absent keys keep the
// value already in Config.
type JsonConfig struct {
	HTTPAddr         *string `json:"http_addr"`
	HealthAddrGRPC   *string `json:"health_addr_grpc"`
	LogLevel         *string `json:"log_level"`
	Storage          *string `json:"storage"`
	DatabaseDSN      *string `json:"database_dsn"`
	SecretKey        *string `json:"secret_key"`
	MutationPolicy   *string `json:"mutation_policy"`
	ResetLinkBaseURL *string `json:"reset_link_base_url"`

	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   *timex.Duration `json:"reset_token_validity_duration"`

	SendgridAPIKey   *string `json:"sendgrid_api_key"`
	EmailFromAddress *string `json:"email_from_address"`
	EmailFromName    *string `json:"email_from_name"`

	RedisAddr     *string `json:"redis_addr"`
	RedisPassword *string `json:"redis_password"`
	RedisDB       *int    `json:"redis_db"`

	ResetRequestsPerHour  *int `json:"reset_requests_per_hour"`
	AuthRequestsPerMinute *int `json:"auth_requests_per_minute"`

	S3RootUser            *string         `json:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket"`
	S3Region              *string         `json:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint"`
	AttachmentURLValidity *timex.Duration `json:"attachment_url_validity"`
}

func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.Storage, c.Storage)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.MutationPolicy, c.MutationPolicy)
	setString(&config.ResetLinkBaseURL, c.ResetLinkBaseURL)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setString(&config.SendgridAPIKey, c.SendgridAPIKey)
	setString(&config.EmailFromAddress, c.EmailFromAddress)
	setString(&config.EmailFromName, c.EmailFromName)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setInt(&config.ResetRequestsPerHour, c.ResetRequestsPerHour)
	setInt(&config.AuthRequestsPerMinute, c.AuthRequestsPerMinute)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.AttachmentURLValidity, c.AttachmentURLValidity)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

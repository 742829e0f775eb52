package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	"github.com/case-framework/records-portal/pkg/cache"
	"github.com/case-framework/records-portal/pkg/documents/coordinator"
	httpclient "github.com/case-framework/records-portal/pkg/http-client"
	recordsclient "github.com/case-framework/records-portal/pkg/records-client"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v2"
)

const serviceName = "portal-api"

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_RECORDS_BACKEND_API_KEY = "RECORDS_BACKEND_API_KEY"
	ENV_USER_JWT_SIGN_KEY       = "USER_JWT_SIGN_KEY"
	ENV_REDIS_PASSWORD          = "REDIS_PASSWORD"
)

const (
	CACHE_TYPE_NONE   = ""
	CACHE_TYPE_MEMORY = "memory"
	CACHE_TYPE_REDIS  = "redis"

	defaultCacheTTL       = 5 * time.Minute
	defaultCacheSize      = 1000
	defaultMaxSessions    = 1000
	defaultSessionTimeout = 30 * time.Minute
	redisKeyPrefix        = "records-portal:"
)

type PortalApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port" validate:"required"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	// Tokens are issued by the records backend and verified here.
	UserJWTConfig struct {
		SignKey string `json:"sign_key" yaml:"sign_key" validate:"required"`
	} `json:"user_jwt_config" yaml:"user_jwt_config"`

	RecordsBackend httpclient.ClientConfig `json:"records_backend" yaml:"records_backend"`

	CacheConfig struct {
		Type      string        `json:"type" yaml:"type" validate:"omitempty,oneof=memory redis"`
		TTL       time.Duration `json:"ttl" yaml:"ttl"`
		Size      int           `json:"size" yaml:"size"`
		RedisAddr string        `json:"redis_addr" yaml:"redis_addr" validate:"required_if=Type redis"`
		RedisPW   string        `json:"redis_password" yaml:"redis_password"`
		RedisDB   int           `json:"redis_db" yaml:"redis_db"`
	} `json:"cache_config" yaml:"cache_config"`

	SessionConfigs struct {
		MaxSessions  int           `json:"max_sessions" yaml:"max_sessions"`
		IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
		PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
		ContentType  string        `json:"content_type" yaml:"content_type"`
	} `json:"session_configs" yaml:"session_configs"`
}

var (
	conf          PortalApiConfig
	recordsClient *recordsclient.RecordsClient
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(serviceName, conf.Logging)

	// Override secrets from environment variables
	secretsOverride()
	applyDefaults()

	if err := utils.ValidateConfig(conf); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		panic(err)
	}

	initRecordsClient()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
}

func secretsOverride() {
	if apiKey := os.Getenv(ENV_RECORDS_BACKEND_API_KEY); apiKey != "" {
		conf.RecordsBackend.APIKey = apiKey
	}

	if signKey := os.Getenv(ENV_USER_JWT_SIGN_KEY); signKey != "" {
		conf.UserJWTConfig.SignKey = signKey
	}

	if redisPW := os.Getenv(ENV_REDIS_PASSWORD); redisPW != "" {
		conf.CacheConfig.RedisPW = redisPW
	}
}

func applyDefaults() {
	if conf.CacheConfig.TTL <= 0 {
		conf.CacheConfig.TTL = defaultCacheTTL
	}
	if conf.CacheConfig.Size <= 0 {
		conf.CacheConfig.Size = defaultCacheSize
	}
	if conf.SessionConfigs.MaxSessions <= 0 {
		conf.SessionConfigs.MaxSessions = defaultMaxSessions
	}
	if conf.SessionConfigs.IdleTimeout <= 0 {
		conf.SessionConfigs.IdleTimeout = defaultSessionTimeout
	}
	if conf.SessionConfigs.PollInterval <= 0 {
		conf.SessionConfigs.PollInterval = coordinator.DefaultPollInterval
	}
}

func initCache() cache.Cache {
	switch conf.CacheConfig.Type {
	case CACHE_TYPE_NONE:
		return nil
	case CACHE_TYPE_MEMORY:
		return cache.NewMemoryCache(conf.CacheConfig.Size, conf.CacheConfig.TTL)
	case CACHE_TYPE_REDIS:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.CacheConfig.RedisAddr,
			Password: conf.CacheConfig.RedisPW,
			DB:       conf.CacheConfig.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("Error connecting to redis, continuing without cache", slog.String("error", err.Error()))
			return nil
		}
		return cache.NewRedisCache(client, conf.CacheConfig.TTL, redisKeyPrefix)
	default:
		slog.Error("unknown cache type", slog.String("type", conf.CacheConfig.Type))
		panic("unknown cache type")
	}
}

func initRecordsClient() {
	httpClient, err := httpclient.NewClient(conf.RecordsBackend)
	if err != nil {
		slog.Error("Error creating records backend client", slog.String("error", err.Error()))
		panic(err)
	}
	recordsClient = recordsclient.NewRecordsClient(httpClient, initCache())
}

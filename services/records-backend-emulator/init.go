package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	"github.com/case-framework/records-portal/pkg/db"
	"github.com/case-framework/records-portal/pkg/db/records"
	"github.com/case-framework/records-portal/pkg/questionnaire/bundled"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"
)

const serviceName = "records-backend-emulator"

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_RECORDS_DB_USERNAME    = "RECORDS_DB_USERNAME"
	ENV_RECORDS_DB_PASSWORD    = "RECORDS_DB_PASSWORD"
	ENV_USER_JWT_SIGN_KEY      = "USER_JWT_SIGN_KEY"
	ENV_ADMIN_API_KEYS         = "ADMIN_API_KEY"
	ENV_EMULATOR_FILESTORE_DIR = "EMULATOR_FILESTORE_PATH"
)

const (
	defaultLockTTL       = 30 * time.Minute
	defaultTokenTTL      = 24 * time.Hour
	defaultMaxUploadSize = 20 << 20
)

type SeedAccount struct {
	Email       string `json:"email" yaml:"email" validate:"required,email"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Password    string `json:"password" yaml:"password"`
	IsAdmin     bool   `json:"is_admin" yaml:"is_admin"`
}

type EmulatorConfig struct {
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

	AdminAPIKeys []string `json:"admin_api_keys" yaml:"admin_api_keys"`

	UserJWTConfig struct {
		SignKey   string        `json:"sign_key" yaml:"sign_key" validate:"required"`
		ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
	} `json:"user_jwt_config" yaml:"user_jwt_config"`

	DocumentConfigs struct {
		LockTTL             time.Duration `json:"lock_ttl" yaml:"lock_ttl"`
		MaxUploadSize       int64         `json:"max_upload_size" yaml:"max_upload_size"`
		AllowedContentTypes []string      `json:"allowed_content_types" yaml:"allowed_content_types"`
	} `json:"document_configs" yaml:"document_configs"`

	// DB configs
	DBConfigs struct {
		RecordsDB db.DBConfigYaml `json:"records_db" yaml:"records_db"`
	} `json:"db_configs" yaml:"db_configs"`

	FilestorePath string `json:"filestore_path" yaml:"filestore_path" validate:"required"`

	SeedAccounts []SeedAccount `json:"seed_accounts" yaml:"seed_accounts" validate:"dive"`
}

var (
	conf             EmulatorConfig
	recordsDBService *records.RecordsDBService
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

	checkFilestorePath()

	// Init DBs
	initDBs()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_RECORDS_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.RecordsDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_RECORDS_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.RecordsDB.Password = dbPassword
	}

	if signKey := os.Getenv(ENV_USER_JWT_SIGN_KEY); signKey != "" {
		conf.UserJWTConfig.SignKey = signKey
	}

	if apiKey := os.Getenv(ENV_ADMIN_API_KEYS); apiKey != "" {
		conf.AdminAPIKeys = append(conf.AdminAPIKeys, apiKey)
	}

	if fsPath := os.Getenv(ENV_EMULATOR_FILESTORE_DIR); fsPath != "" {
		conf.FilestorePath = fsPath
	}

	// Override passwords of seeded accounts
	for i := range conf.SeedAccounts {
		account := &conf.SeedAccounts[i]
		if account.Email == "" {
			continue
		}
		if password := os.Getenv(utils.GenerateAccountPasswordEnvVarName(account.Email)); password != "" {
			account.Password = password
		}
	}
}

func applyDefaults() {
	if conf.UserJWTConfig.ExpiresIn <= 0 {
		conf.UserJWTConfig.ExpiresIn = defaultTokenTTL
	}
	if conf.DocumentConfigs.LockTTL <= 0 {
		conf.DocumentConfigs.LockTTL = defaultLockTTL
	}
	if conf.DocumentConfigs.MaxUploadSize <= 0 {
		conf.DocumentConfigs.MaxUploadSize = defaultMaxUploadSize
	}
}

func checkFilestorePath() {
	fsPath := conf.FilestorePath
	if fsPath == "" {
		slog.Error("Filestore path not set - configure EMULATOR_FILESTORE_PATH env variable.")
		panic("Filestore path not set")
	}

	if _, err := os.Stat(fsPath); os.IsNotExist(err) {
		slog.Error("Filestore path does not exist", slog.String("path", fsPath))
		panic("Filestore path does not exist")
	}
}

func initDBs() {
	var err error
	recordsDBService, err = records.NewRecordsDBService(db.DBConfigFromYamlObj(conf.DBConfigs.RecordsDB))
	if err != nil {
		slog.Error("Error connecting to Records DB", slog.String("error", err.Error()))
		panic(err)
	}
}

// seedData makes sure the configured accounts and the bundled questionnaire
// exist. Existing accounts are left untouched.
func seedData() {
	for _, seed := range conf.SeedAccounts {
		if seed.Email == "" || seed.Password == "" {
			slog.Warn("skipping seed account without email or password", slog.String("email", seed.Email))
			continue
		}
		hash, err := utils.HashPassword(seed.Password)
		if err != nil {
			slog.Error("failed to hash seed account password", slog.String("email", seed.Email), slog.String("error", err.Error()))
			continue
		}
		_, err = recordsDBService.CreateAccount(records.Account{
			Email:        seed.Email,
			DisplayName:  seed.DisplayName,
			PasswordHash: hash,
			IsAdmin:      seed.IsAdmin,
		})
		if err != nil && !errors.Is(err, records.ErrAccountExists) {
			slog.Error("failed to seed account", slog.String("email", seed.Email), slog.String("error", err.Error()))
		}
	}

	q, err := bundled.LoadPersonalHealth()
	if err != nil {
		slog.Error("failed to load bundled questionnaire", slog.String("error", err.Error()))
		return
	}
	if _, err := recordsDBService.GetQuestionnaire(q.ID); err == nil {
		return
	}
	if err := recordsDBService.SaveQuestionnaire(q); err != nil {
		slog.Error("failed to seed bundled questionnaire", slog.String("error", err.Error()))
	}
}

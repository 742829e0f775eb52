package main

import (
	"log/slog"
	"os"

	"github.com/case-framework/records-portal/pkg/db"
	"github.com/case-framework/records-portal/pkg/db/records"
	"github.com/case-framework/records-portal/pkg/utils"
	"gopkg.in/yaml.v2"
)

const serviceName = "lock-cleanup"

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_RECORDS_DB_USERNAME = "RECORDS_DB_USERNAME"
	ENV_RECORDS_DB_PASSWORD = "RECORDS_DB_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		RecordsDB db.DBConfigYaml `json:"records_db" yaml:"records_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Drops and recreates the indexes of the records DB before cleaning up
	RecreateIndexes bool `json:"recreate_indexes" yaml:"recreate_indexes"`

	CleanUpConfig struct {
		FilestorePath         string `json:"filestore_path" yaml:"filestore_path" validate:"required_if=CleanOrphanedVersions true"`
		CleanOrphanedVersions bool   `json:"clean_orphaned_versions" yaml:"clean_orphaned_versions"`
		// Files younger than this are skipped, a checkin may still be running.
		OrphanMinAge string `json:"orphan_min_age" yaml:"orphan_min_age"`
	} `json:"clean_up_config" yaml:"clean_up_config"`
}

var conf config

var (
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

	if err := utils.ValidateConfig(conf); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		panic(err)
	}

	// init db
	initDBs()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_RECORDS_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.RecordsDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_RECORDS_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.RecordsDB.Password = dbPassword
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

package db

import (
	"fmt"
	"log/slog"
)

const (
	defaultTimeout         = 30
	defaultIdleConnTimeout = 45
	defaultMaxPoolSize     = 8
	recordsDBName          = "records"
)

// DBConfigFromYamlObj builds the connection config. Username and password
// are optional for local development databases.
func DBConfigFromYamlObj(yamlObj DBConfigYaml) DBConfig {
	if yamlObj.ConnectionStr == "" {
		slog.Error("DB connection string missing")
		panic("DB connection string missing")
	}

	var uri string
	if yamlObj.Username == "" && yamlObj.Password == "" {
		uri = fmt.Sprintf(`mongodb%s://%s`, yamlObj.ConnectionPrefix, yamlObj.ConnectionStr)
	} else {
		uri = fmt.Sprintf(`mongodb%s://%s:%s@%s`, yamlObj.ConnectionPrefix, yamlObj.Username, yamlObj.Password, yamlObj.ConnectionStr)
	}

	conf := DBConfig{
		URI:              uri,
		DBName:           yamlObj.DBNamePrefix + recordsDBName,
		Timeout:          yamlObj.Timeout,
		IdleConnTimeout:  yamlObj.IdleConnTimeout,
		NoCursorTimeout:  yamlObj.UseNoCursorTimeout,
		RunIndexCreation: yamlObj.RunIndexCreation,
	}
	if conf.Timeout <= 0 {
		conf.Timeout = defaultTimeout
	}
	if conf.IdleConnTimeout <= 0 {
		conf.IdleConnTimeout = defaultIdleConnTimeout
	}
	if yamlObj.MaxPoolSize > 0 {
		conf.MaxPoolSize = uint64(yamlObj.MaxPoolSize)
	} else {
		conf.MaxPoolSize = defaultMaxPoolSize
	}
	return conf
}

// Package config loads process settings from the environment (populated from
// .env in main.go) and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Config holds all configuration for the application.
type Config struct {
	SQLConnString       string
	SourceSQLConnString string
	MongoConnString     string
	MongoDatabase       string
	MongoCollection     string

	FileSources   []models.FileSource
	FileDelimiter rune
	MappingFile   string

	APIBaseURL  string
	APIEndpoint string
	APITimeout  time.Duration
	DBTimeout   time.Duration
	DBWindow    time.Duration

	StagingDir    string
	RetentionDays int
	PruneSchedule string

	ETLInterval           time.Duration
	InitialDelay          time.Duration
	LoadAfterExtract      bool
	MaxParallelExtractors int

	AdminAddr      string
	LogLevel       string
	LogFile        string
	CalendarLocale string
}

var defaults = map[string]interface{}{
	"mongo_database":          "opinions",
	"mongo_collection":        "reviews",
	"file_delimiter":          ",",
	"api_timeout":             "30s",
	"db_timeout":              "30s",
	"db_window":               "24h",
	"staging_dir":             "staging",
	"retention_days":          30,
	"prune_schedule":          "0 3 * * *",
	"etl_interval":            "1h",
	"etl_initial_delay":       "5s",
	"load_after_extract":      true,
	"max_parallel_extractors": 0,
	"admin_addr":              ":8080",
	"log_level":               "info",
	"log_file":                "",
	"calendar_locale":         "en",
}

// LoadConfig reads settings from environment variables and, when configFile
// is not empty, from that YAML file. Environment variables win.
func LoadConfig(configFile string) (*Config, error) {
	return load(configFile, true)
}

// LoadLocalConfig is LoadConfig for commands that never touch the analytical
// store: SQL_CONNECTION_STRING may be unset.
func LoadLocalConfig(configFile string) (*Config, error) {
	return load(configFile, false)
}

func load(configFile string, requireSQL bool) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configFile, err)
		}
	}

	sqlConn := v.GetString("sql_connection_string")
	if sqlConn == "" && requireSQL {
		return nil, errors.New("SQL_CONNECTION_STRING environment variable not set")
	}

	sources, err := ParseFileSources(v.GetString("file_sources"))
	if err != nil {
		return nil, err
	}

	delimiter := []rune(v.GetString("file_delimiter"))
	if len(delimiter) != 1 {
		return nil, fmt.Errorf("FILE_DELIMITER must be a single character, got %q", v.GetString("file_delimiter"))
	}

	retention := v.GetInt("retention_days")
	if retention < 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must not be negative: %d", retention)
	}

	interval := v.GetDuration("etl_interval")
	if interval <= 0 {
		return nil, fmt.Errorf("ETL_INTERVAL must be positive: %s", v.GetString("etl_interval"))
	}

	return &Config{
		SQLConnString:         sqlConn,
		SourceSQLConnString:   v.GetString("source_sql_connection_string"),
		MongoConnString:       v.GetString("mongo_connection_string"),
		MongoDatabase:         v.GetString("mongo_database"),
		MongoCollection:       v.GetString("mongo_collection"),
		FileSources:           sources,
		FileDelimiter:         delimiter[0],
		MappingFile:           v.GetString("mapping_file"),
		APIBaseURL:            strings.TrimRight(v.GetString("api_base_url"), "/"),
		APIEndpoint:           strings.TrimLeft(v.GetString("api_endpoint"), "/"),
		APITimeout:            v.GetDuration("api_timeout"),
		DBTimeout:             v.GetDuration("db_timeout"),
		DBWindow:              v.GetDuration("db_window"),
		StagingDir:            v.GetString("staging_dir"),
		RetentionDays:         retention,
		PruneSchedule:         v.GetString("prune_schedule"),
		ETLInterval:           interval,
		InitialDelay:          v.GetDuration("etl_initial_delay"),
		LoadAfterExtract:      v.GetBool("load_after_extract"),
		MaxParallelExtractors: v.GetInt("max_parallel_extractors"),
		AdminAddr:             v.GetString("admin_addr"),
		LogLevel:              v.GetString("log_level"),
		LogFile:               v.GetString("log_file"),
		CalendarLocale:        v.GetString("calendar_locale"),
	}, nil
}

// ParseFileSources parses "profile:path,profile:path". An entry without a
// known profile prefix is read with the generic profile, so Windows drive
// letters survive.
func ParseFileSources(value string) ([]models.FileSource, error) {
	var sources []models.FileSource
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		src := models.FileSource{Path: entry, Profile: models.ProfileGeneric}
		if prefix, path, ok := strings.Cut(entry, ":"); ok {
			if profile, err := models.ParseProfile(prefix); err == nil {
				src = models.FileSource{Path: strings.TrimSpace(path), Profile: profile}
			}
		}
		if src.Path == "" {
			return nil, fmt.Errorf("FILE_SOURCES entry %q has no path", entry)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "surrealcrud"
	configFileType = "yaml"

	cfgKeyURL       = "surrealdb.url"
	cfgKeyNamespace = "surrealdb.namespace"
	cfgKeyDatabase  = "surrealdb.database"
	cfgKeyUsername  = "surrealdb.username"
	cfgKeyPassword  = "surrealdb.password"
	cfgKeySchema    = "schema"
	cfgKeyListen    = "listen"
	cfgKeyLogLevel  = "log.level"
	cfgKeyStore     = "store"
	cfgKeyReadOnly  = "read_only"
	cfgKeyUserHdr   = "user_header"

	storeSurrealDB = "surrealdb"
	storeMemory    = "memory"
)

type config struct {
	URL        string
	Namespace  string
	Database   string
	Username   string
	Password   string
	Schema     string
	Listen     string
	LogLevel   string
	Store      string
	ReadOnly   bool
	UserHeader string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(cfgKeyURL, "ws://localhost:8000")
	v.SetDefault(cfgKeyNamespace, "surrealcrud")
	v.SetDefault(cfgKeyDatabase, "surrealcrud")
	v.SetDefault(cfgKeyUsername, "root")
	v.SetDefault(cfgKeyPassword, "root")
	v.SetDefault(cfgKeyListen, ":8080")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyStore, storeSurrealDB)
	v.SetDefault(cfgKeyUserHdr, "X-User-Id")
}

// loadConfig layers flags over the environment over surrealcrud.yaml over
// defaults. A missing config file is not an error.
func loadConfig(cmd *cobra.Command, configFile string) (*config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("SURREALCRUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(cfgKeyURL, "SURREALCRUD_SURREALDB_URL", "SURREALDB_URL"); err != nil {
		return nil, err
	}

	for key, flag := range map[string]string{
		cfgKeyURL:       "surrealdb-url",
		cfgKeyNamespace: "namespace",
		cfgKeyDatabase:  "database",
		cfgKeyUsername:  "username",
		cfgKeyPassword:  "password",
		cfgKeySchema:    "schema",
		cfgKeyListen:    "listen",
		cfgKeyLogLevel:  "log-level",
		cfgKeyStore:     "store",
		cfgKeyReadOnly:  "read-only",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg := &config{
		URL:        v.GetString(cfgKeyURL),
		Namespace:  v.GetString(cfgKeyNamespace),
		Database:   v.GetString(cfgKeyDatabase),
		Username:   v.GetString(cfgKeyUsername),
		Password:   v.GetString(cfgKeyPassword),
		Schema:     v.GetString(cfgKeySchema),
		Listen:     v.GetString(cfgKeyListen),
		LogLevel:   v.GetString(cfgKeyLogLevel),
		Store:      v.GetString(cfgKeyStore),
		ReadOnly:   v.GetBool(cfgKeyReadOnly),
		UserHeader: v.GetString(cfgKeyUserHdr),
	}
	switch cfg.Store {
	case storeSurrealDB, storeMemory:
	default:
		return nil, fmt.Errorf("unknown store %q: want %s or %s", cfg.Store, storeSurrealDB, storeMemory)
	}
	return cfg, nil
}

// Package config loads compiler settings from a config file, the environment
// and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/columns"
	"github.com/satishbabariya/tsqlgen/query/compiler"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
)

var AppFs = afero.NewOsFs()

const (
	// FileName is the config file name without extension.
	FileName = ".tsqlgen"
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "TSQLGEN"
)

// Keys
const (
	KeyDialect           = "dialect"
	KeyServerVersion     = "server_version"
	KeyParamPrefix       = "param_prefix"
	KeyColumnTag         = "column_tag"
	KeyDebug             = "debug"
	KeyLegacyNormalize   = "legacy_normalize"
	KeyTelemetryEnabled  = "telemetry.enabled"
	KeyTelemetryEndpoint = "telemetry.endpoint"
)

var keys = []string{
	KeyDialect,
	KeyServerVersion,
	KeyParamPrefix,
	KeyColumnTag,
	KeyDebug,
	KeyLegacyNormalize,
	KeyTelemetryEnabled,
	KeyTelemetryEndpoint,
}

// Config holds the compiler configuration
type Config struct {
	// Dialect names the paging dialect. It wins over ServerVersion.
	Dialect         string
	ServerVersion   string
	ParamPrefix     string
	ColumnTag       string
	Debug           bool
	LegacyNormalize bool
	Telemetry       Telemetry
	// File is the config file that was read, empty when none was found.
	File string
}

// Telemetry configures the opt-in event collector.
type Telemetry struct {
	Enabled  bool
	Endpoint string
}

// Load loads configuration from the working directory, the home directory,
// the environment and .env files on the OS filesystem.
func Load() (*Config, error) {
	return LoadFrom(AppFs, ".")
}

// LoadFrom loads configuration with dir as the first search path. Files are
// read through fs. Precedence, highest first: environment, .env.local, .env,
// config file, defaults.
func LoadFrom(fs afero.Fs, dir string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "tsqlgen"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyParamPrefix, ast.DefaultParamPrefix)
	v.SetDefault(KeyColumnTag, columns.DefaultTag)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLegacyNormalize, false)
	v.SetDefault(KeyTelemetryEnabled, false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	dotenv, err := readDotenv(fs, dir)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		value, ok := dotenv[envName(key)]
		if !ok {
			continue
		}
		if _, inEnv := os.LookupEnv(envName(key)); !inEnv {
			v.Set(key, value)
		}
	}

	cfg := &Config{
		Dialect:         v.GetString(KeyDialect),
		ServerVersion:   v.GetString(KeyServerVersion),
		ParamPrefix:     v.GetString(KeyParamPrefix),
		ColumnTag:       v.GetString(KeyColumnTag),
		Debug:           v.GetBool(KeyDebug),
		LegacyNormalize: v.GetBool(KeyLegacyNormalize),
		Telemetry: Telemetry{
			Enabled:  v.GetBool(KeyTelemetryEnabled),
			Endpoint: v.GetString(KeyTelemetryEndpoint),
		},
		File: v.ConfigFileUsed(),
	}

	if _, err := cfg.Paging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readDotenv parses .env and then .env.local from dir. Later files win.
func readDotenv(fs afero.Fs, dir string) (map[string]string, error) {
	values := make(map[string]string)
	for _, name := range []string{".env", ".env.local"} {
		f, err := fs.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		parsed, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for k, v := range parsed {
			values[k] = v
		}
	}
	return values, nil
}

// Paging resolves the paging dialect: an explicit dialect, else the server
// version, else OffsetFetch.
func (c *Config) Paging() (sqlgen.Paging, error) {
	if c.Dialect != "" {
		return sqlgen.ParsePaging(c.Dialect)
	}
	if c.ServerVersion != "" {
		return PagingForVersion(c.ServerVersion)
	}
	return sqlgen.OffsetFetch, nil
}

// NewCompiler builds a compiler from the configuration. opts are applied
// after the configured ones.
func (c *Config) NewCompiler(opts ...compiler.Option) (*compiler.Compiler, error) {
	paging, err := c.Paging()
	if err != nil {
		return nil, err
	}
	base := []compiler.Option{
		compiler.WithParamPrefix(c.ParamPrefix),
		compiler.WithMapper(columns.NewTagMapper(c.ColumnTag)),
	}
	return compiler.New(paging, append(base, opts...)...), nil
}

// Package config loads the users service settings.
//
// Sources are applied in increasing priority: built-in defaults, an
// optional JSON file (path from the CONFIG env variable or the -c flag),
// environment variables (a .env file is loaded first, when present), and
// finally command line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr           string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel          string        `env:"LOG_LEVEL" validate:"loglevel"`
	EnableTestRoutes  bool          `env:"ENABLE_TEST_ROUTES"`
	TrustedSubnet     string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	TrustProxyHeaders bool          `env:"TRUST_PROXY_HEADERS"`
	SeedUsers         bool          `env:"SEED_USERS"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ConfigFile        string        `env:"CONFIG"`
}

type jsonConfig struct {
	RunAddr           string `json:"server_address"`
	LogLevel          string `json:"log_level"`
	EnableTestRoutes  *bool  `json:"enable_test_routes"`
	TrustedSubnet     string `json:"trusted_subnet"`
	TrustProxyHeaders *bool  `json:"trust_proxy_headers"`
	SeedUsers         *bool  `json:"seed_users"`
	ShutdownTimeout   string `json:"shutdown_timeout"`
}

var defaultConfig = Config{
	RunAddr:           ":4000",
	LogLevel:          "info",
	EnableTestRoutes:  false,
	TrustedSubnet:     "",
	TrustProxyHeaders: false,
	SeedUsers:         false,
	ShutdownTimeout:   10 * time.Second,
	ConfigFile:        "",
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs replaces os.Args[1:] as the source of command line flags.
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := os.Getenv("CONFIG")
	if !options.disableFlagsParsing {
		if fromFlag := lookupConfigFlag(options.args); fromFlag != "" {
			configFile = fromFlag
		}
	}
	if configFile != "" {
		if err := values.applyJSONFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	if !options.disableFlagsParsing {
		if err := values.parseFlags(options.args); err != nil {
			return nil, err
		}
	}
	values.ConfigFile = configFile

	if err := validate(values); err != nil {
		return nil, err
	}

	return values, nil
}

func (values *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("usersvc", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
	flags.BoolVar(&values.EnableTestRoutes, "t", values.EnableTestRoutes, "register the /__test__ routes")
	flags.StringVar(&values.TrustedSubnet, "s", values.TrustedSubnet, "CIDR allowed to call the /__test__ routes")
	flags.BoolVar(&values.TrustProxyHeaders, "trust-proxy", values.TrustProxyHeaders, "take the client IP from X-Real-IP/X-Forwarded-For")
	flags.BoolVar(&values.SeedUsers, "seed", values.SeedUsers, "start with the sample users")
	flags.String("c", "", "JSON config file")

	return flags.Parse(args)
}

// lookupConfigFlag finds -c before the rest of the flags are parsed,
// since the JSON file has to be applied below env and CLI values.
func lookupConfigFlag(args []string) string {
	configFile := ""
	for i, arg := range args {
		switch {
		case arg == "-c" || arg == "--c":
			if i+1 < len(args) {
				configFile = args[i+1]
			}
		case strings.HasPrefix(arg, "-c="):
			configFile = strings.TrimPrefix(arg, "-c=")
		case strings.HasPrefix(arg, "--c="):
			configFile = strings.TrimPrefix(arg, "--c=")
		}
	}

	return configFile
}

func (values *Config) applyJSONFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSONFile(): error while reading %q: %w", fileName, err)
	}

	var fromJSON jsonConfig
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSONFile(): error while parsing %q: %w", fileName, err)
	}

	if fromJSON.RunAddr != "" {
		values.RunAddr = fromJSON.RunAddr
	}

	if fromJSON.LogLevel != "" {
		values.LogLevel = fromJSON.LogLevel
	}

	if fromJSON.EnableTestRoutes != nil {
		values.EnableTestRoutes = *fromJSON.EnableTestRoutes
	}

	if fromJSON.TrustedSubnet != "" {
		values.TrustedSubnet = fromJSON.TrustedSubnet
	}

	if fromJSON.TrustProxyHeaders != nil {
		values.TrustProxyHeaders = *fromJSON.TrustProxyHeaders
	}

	if fromJSON.SeedUsers != nil {
		values.SeedUsers = *fromJSON.SeedUsers
	}

	if fromJSON.ShutdownTimeout != "" {
		timeout, err := time.ParseDuration(fromJSON.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/applyJSONFile(): bad shutdown_timeout: %w", err)
		}
		values.ShutdownTimeout = timeout
	}

	return nil
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
		"dpanic": true,
		"panic":  true,
		"fatal":  true,
	}

	return allowedLogLevels[value]
}

func validate(values *Config) error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

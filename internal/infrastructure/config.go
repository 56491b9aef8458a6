package infra

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "COURSEPILOT"

// runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig App option object
type AppConfig struct {
	AppID string `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"` // Application ID
	Env   string `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"`
	API   struct {
		BaseURL string        `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"` // backend REST API root
		Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`                            // per request timeout
	} `mapstructure:"api" json:"api" yaml:"api"`
	Identity struct {
		Endpoint string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint" validate:"required,url"` // identity provider REST endpoint
		APIKey   string `mapstructure:"api_key" json:"api_key" yaml:"api_key" validate:"required"`        // identity provider web API key
	} `mapstructure:"identity" json:"identity" yaml:"identity"`
	Session struct {
		LogoutLead     time.Duration `mapstructure:"logout_lead" json:"logout_lead" yaml:"logout_lead"`             // auto logout this long before expiry
		RefreshWindow  time.Duration `mapstructure:"refresh_window" json:"refresh_window" yaml:"refresh_window"`    // activity inside this window extends the session
		RefreshDebounce time.Duration `mapstructure:"refresh_debounce" json:"refresh_debounce" yaml:"refresh_debounce"`
		LoginFetchDelay time.Duration `mapstructure:"login_fetch_delay" json:"login_fetch_delay" yaml:"login_fetch_delay"` // cookie propagation wait after login
	} `mapstructure:"session" json:"session" yaml:"session"`
	Store struct {
		Backend string `mapstructure:"backend" json:"backend" yaml:"backend" validate:"oneof=sqlite redis"` // device store driver
		Path    string `mapstructure:"path" json:"path" yaml:"path"`                                        // sqlite file path
		Host    string `mapstructure:"host" json:"host" yaml:"host"`                                        // redis host
		Port    int    `mapstructure:"port" json:"port" yaml:"port"`                                        // redis port
		Password string `mapstructure:"password" json:"password" yaml:"password"`
	} `mapstructure:"store" json:"store" yaml:"store"`
	Voice struct {
		GatewayURL  string `mapstructure:"gateway_url" json:"gateway_url" yaml:"gateway_url"` // voice call websocket gateway
		AssistantID string `mapstructure:"assistant_id" json:"assistant_id" yaml:"assistant_id"`
	} `mapstructure:"voice" json:"voice" yaml:"voice"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// app
	pflag.String("app_id", "coursepilot", "application identifier")
	pflag.String("env", "development", "runtime environment, can be 'development' or 'production'")

	// backend API
	pflag.String("api.base_url", "http://127.0.0.1:8088/api", "backend API root URL")
	pflag.Duration("api.timeout", 15*time.Second, "request timeout(m, s and h units are supported), eg.15s")

	// identity provider
	pflag.String("identity.endpoint", "http://127.0.0.1:8088/identity", "identity provider endpoint")
	pflag.String("identity.api_key", "", "identity provider web API key (required)")

	// session lifecycle
	pflag.Duration("session.logout_lead", 30*time.Second, "log out this long before session expiry")
	pflag.Duration("session.refresh_window", 10*time.Minute, "extend the session when activity happens inside this window")
	pflag.Duration("session.refresh_debounce", time.Second, "debounce between activity and the refresh call")
	pflag.Duration("session.login_fetch_delay", 500*time.Millisecond, "wait after login before fetching the user record")

	// device store
	pflag.String("store.backend", "sqlite", "device store backend, can be 'sqlite' or 'redis'")
	pflag.String("store.path", "coursepilot.db", "sqlite device store path")
	pflag.String("store.host", "127.0.0.1", "redis host")
	pflag.Int("store.port", 6379, "redis server port")
	pflag.String("store.password", "", "redis server password")

	// voice gateway
	pflag.String("voice.gateway_url", "", "voice call websocket gateway URL")
	pflag.String("voice.assistant_id", "", "voice assistant template ID")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm tracing")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "-" || name == "" {
			name = fld.Tag.Get("yaml")
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		log.Fatalf("Failed to validate config: %s", err)
	}
	if err == nil {
		return nil
	}

	var msg []string
	for _, field := range err.(validator.ValidationErrors) {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		case "url":
			msg = append(msg, fmt.Sprintf("%s must be a valid URL", fieldName))
		}
	}
	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}

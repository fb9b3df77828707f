package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Multipart update modes, see AppConfig.MultipartUpdate.
const (
	MultipartUpdateOverride = "override"
	MultipartUpdateNative   = "native"
)

type AppConfig struct {
	APIBaseURL       string        `mapstructure:"API_BASE_URL"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MultipartUpdate  string        `mapstructure:"MULTIPART_UPDATE"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	ServiceName      string        `mapstructure:"SERVICE_NAME"`
	RabbitMQURL      string        `mapstructure:"RABBITMQ_URL"`
	AWSEndpoint      string        `mapstructure:"AWS_ENDPOINT"`
	AWSBucket        string        `mapstructure:"AWS_BUCKET"`
	AWSDefaultRegion string        `mapstructure:"AWS_DEFAULT_REGION"`
	AWSAccessKey     string        `mapstructure:"AWS_ACCESS_KEY"`
	AWSSecretKey     string        `mapstructure:"AWS_SECRET_KEY"`
}

// NativeMultipartUpdate reports whether multipart updates should use a real
// PUT instead of POST with the _method override marker.
func (c *AppConfig) NativeMultipartUpdate() bool {
	return c.MultipartUpdate == MultipartUpdateNative
}

// ArchiveEnabled reports whether uploaded assets should be copied to S3.
func (c *AppConfig) ArchiveEnabled() bool {
	return c.AWSBucket != ""
}

func Read() *AppConfig {
	cfg, err := Load(".env")
	if err != nil {
		panic(fmt.Errorf("fatal error reading config: %w", err))
	}
	return cfg
}

// Load reads envFile (missing is fine) and then the process environment,
// which wins over the file.
func Load(envFile string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	bindEnvVariables(v)
	setDefaults(v)

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	switch appConfig.MultipartUpdate {
	case MultipartUpdateOverride, MultipartUpdateNative:
	default:
		return nil, fmt.Errorf("MULTIPART_UPDATE must be %q or %q, got %q",
			MultipartUpdateOverride, MultipartUpdateNative, appConfig.MultipartUpdate)
	}

	return &appConfig, nil
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("API_BASE_URL")
	_ = v.BindEnv("REQUEST_TIMEOUT")
	_ = v.BindEnv("MULTIPART_UPDATE")
	_ = v.BindEnv("LOG_LEVEL")
	_ = v.BindEnv("SERVICE_NAME")
	_ = v.BindEnv("RABBITMQ_URL")
	_ = v.BindEnv("AWS_ENDPOINT")
	_ = v.BindEnv("AWS_BUCKET")
	_ = v.BindEnv("AWS_DEFAULT_REGION")
	_ = v.BindEnv("AWS_ACCESS_KEY")
	_ = v.BindEnv("AWS_SECRET_KEY")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", "https://menuo.zayamrock.com/api")
	v.SetDefault("REQUEST_TIMEOUT", "0s")
	v.SetDefault("MULTIPART_UPDATE", MultipartUpdateOverride)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "menuo")
}

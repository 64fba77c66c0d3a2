package configuration

import (
	"fmt"
	"os"
	"strconv"

	"creator-hub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Platforms   Platforms   `json:"platforms"`
	HTTPClient  HTTPClient  `json:"httpClient"`
	Sync        Sync        `json:"sync"`
	Onboarding  Onboarding  `json:"onboarding"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

// Platforms holds per-platform OAuth client credentials and endpoints.
type Platforms struct {
	Instagram PlatformClient `json:"instagram"`
	TikTok    PlatformClient `json:"tiktok"`
}

type PlatformClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
	// BaseURL overrides the platform API host (tests point it at a local server).
	BaseURL string `json:"baseURL"`
}

// HTTPClient bounds every outbound platform call.
type HTTPClient struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Sync tunes the insights sync engine.
type Sync struct {
	MaxConcurrency  int `json:"maxConcurrency"`
	RetryAttempts   int `json:"retryAttempts"`
	CacheTTLSeconds int `json:"cacheTTLSeconds"`
	PollBatchSize   int `json:"pollBatchSize"`
}

// Onboarding holds the continuation URL the OAuth callback redirects to.
type Onboarding struct {
	ContinueURL string `json:"continueURL"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPlatforms(&C)
	initSync(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config via environment variables (Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if v := os.Getenv("MSSQL_PORT"); v != "" && C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = v
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}
}

func initApp(C *Config) {
	// SECRET_KEY from environment overrides config for JWT verification
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10020
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10020
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication and OAuth state signing will fail. Provide SECRET_KEY via environment.")
	}
}

func initPlatforms(C *Config) {
	ig := &C.Platforms.Instagram
	ig.ClientID = getConfigValue(ig.ClientID, "INSTAGRAM_CLIENT_ID", "")
	ig.ClientSecret = getConfigValue(ig.ClientSecret, "INSTAGRAM_CLIENT_SECRET", "")
	ig.RedirectURI = getConfigValue(ig.RedirectURI, "INSTAGRAM_REDIRECT_URI", defaultRedirect(C, "instagram"))

	tt := &C.Platforms.TikTok
	tt.ClientID = getConfigValue(tt.ClientID, "TIKTOK_CLIENT_KEY", "")
	tt.ClientSecret = getConfigValue(tt.ClientSecret, "TIKTOK_CLIENT_SECRET", "")
	tt.RedirectURI = getConfigValue(tt.RedirectURI, "TIKTOK_REDIRECT_URI", defaultRedirect(C, "tiktok"))

	if C.Onboarding.ContinueURL == "" {
		C.Onboarding.ContinueURL = getConfigValue("", "ONBOARDING_CONTINUE_URL", "/onboarding/connected")
	}
}

func initSync(C *Config) {
	if C.HTTPClient.TimeoutSeconds == 0 {
		C.HTTPClient.TimeoutSeconds = 15
	}
	if C.Sync.MaxConcurrency == 0 {
		C.Sync.MaxConcurrency = 4
	}
	if C.Sync.RetryAttempts == 0 {
		C.Sync.RetryAttempts = 3
	}
	if C.Sync.CacheTTLSeconds == 0 {
		C.Sync.CacheTTLSeconds = 60
	}
	if C.Sync.PollBatchSize == 0 {
		C.Sync.PollBatchSize = 10
	}
}

func defaultRedirect(C *Config, platform string) string {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	port := C.App.Port
	if port == 0 {
		port = 10020
	}
	return fmt.Sprintf("%s://localhost:%d/auth/%s/callback", scheme, port, platform)
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

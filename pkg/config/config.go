package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Backend BackendConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// BackendConfig points at the external classification service that performs
// the actual Naive Bayes training and inference.
type BackendConfig struct {
	BaseURL            string
	TrainTimeoutSec    int
	ClassifyTimeoutSec int
	DeleteTimeoutSec   int
	HealthTimeoutSec   int
}

type AuthConfig struct {
	AdminUsername string
	AdminPassword string
	CookieName    string
	CookieValue   string
	LoginPath     string
}

type CacheConfig struct {
	ModelsTTLSec          int
	ClassificationsTTLSec int
	DatasetRecordsTTLSec  int
	HistoryTTLSec         int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/naivebayes-dashboard")

	viper.SetEnvPrefix("NAIVEBAYES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 90)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/naivebayes.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("backend.baseURL", "")
	viper.SetDefault("backend.trainTimeoutSec", 60)
	viper.SetDefault("backend.classifyTimeoutSec", 30)
	viper.SetDefault("backend.deleteTimeoutSec", 5)
	viper.SetDefault("backend.healthTimeoutSec", 5)

	viper.SetDefault("auth.adminUsername", "admin")
	viper.SetDefault("auth.cookieName", "nb_admin_session")
	viper.SetDefault("auth.cookieValue", "authenticated")
	viper.SetDefault("auth.loginPath", "/login")

	viper.SetDefault("cache.modelsTTLSec", 300)
	viper.SetDefault("cache.classificationsTTLSec", 60)
	viper.SetDefault("cache.datasetRecordsTTLSec", 120)
	viper.SetDefault("cache.historyTTLSec", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}

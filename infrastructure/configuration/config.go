package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"video-aggregator/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	Providers   Providers   `json:"providers"`
	Cache       Cache       `json:"cache"`
	Mock        Mock        `json:"mock"`
}

type App struct {
	Port           int      `json:"port"`
	SecretKey      string   `json:"secretKey"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type Database struct {
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type Logger struct {
	Level string `json:"level"`
}

// Providers holds the upstream APIs in fallback order
type Providers struct {
	Filehost Provider `json:"filehost"`
	Catalog  Provider `json:"catalog"`
	YouTube  Provider `json:"youtube"`
}

type Provider struct {
	Enabled      bool    `json:"enabled"`
	BaseURL      string  `json:"baseURL"`
	EmbedBaseURL string  `json:"embedBaseURL"`
	APIKey       string  `json:"apiKey"`
	TimeoutMs    int     `json:"timeoutMs"`
	RatePerSec   float64 `json:"ratePerSec"`
	Burst        int     `json:"burst"`
	RegionCode   string  `json:"regionCode"`
}

// Timeout returns the per-call timeout, defaulting to 8s
func (p Provider) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 8 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

type Cache struct {
	PageTTLSec       int `json:"pageTTLSec"`
	VideoTTLSec      int `json:"videoTTLSec"`
	SearchTTLSec     int `json:"searchTTLSec"`
	CollectionTTLSec int `json:"collectionTTLSec"`
	StaleGraceSec    int `json:"staleGraceSec"`
	SweepIntervalSec int `json:"sweepIntervalSec"`
	MaxPages         int `json:"maxPages"`
	LoadConcurrency  int `json:"loadConcurrency"`
	PerPage          int `json:"perPage"`
}

type Mock struct {
	TotalPages int `json:"totalPages"`
	PerPage    int `json:"perPage"`
}

var C Config

func init() {
	Init()
}

// Init (re)reads configuration files and the environment into C
func Init() {
	C = Config{}
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initProviders(&C)
	initCache(&C)
	if C.Logger.Level != "" {
		logger.SetLevel(C.Logger.Level)
	}
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
	if v := os.Getenv("DB_VENDOR"); v != "" {
		C.Database.Vendor = v
	}
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
		C.Database.Psql.Port = getEnv("DB_PORT", "5432")
	}

	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}

	if C.RedisClient.Host == "" {
		C.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = getEnv("REDIS_PORT", "6379")
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
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
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		C.App.TLSEnabled = parseBool(v, C.App.TLSEnabled)
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		C.App.AllowedOrigins = splitList(v)
	}
	if len(C.App.AllowedOrigins) == 0 {
		C.App.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; admin endpoints will reject every token. Provide SECRET_KEY via environment.")
	}
}

func initProviders(C *Config) {
	applyProviderEnv(&C.Providers.Filehost, "FILEHOST")
	applyProviderEnv(&C.Providers.Catalog, "CATALOG")
	applyProviderEnv(&C.Providers.YouTube, "YOUTUBE")
	if C.Providers.YouTube.BaseURL == "" {
		C.Providers.YouTube.BaseURL = "https://youtube.googleapis.com/"
	}
	if C.Providers.Filehost.EmbedBaseURL == "" {
		C.Providers.Filehost.EmbedBaseURL = C.Providers.Filehost.BaseURL
	}
}

// applyProviderEnv reads {PREFIX}_BASE_URL, {PREFIX}_API_KEY, {PREFIX}_ENABLED and {PREFIX}_TIMEOUT_MS
func applyProviderEnv(p *Provider, prefix string) {
	p.BaseURL = getConfigValue(p.BaseURL, prefix+"_BASE_URL", p.BaseURL)
	p.EmbedBaseURL = getConfigValue(p.EmbedBaseURL, prefix+"_EMBED_BASE_URL", p.EmbedBaseURL)
	p.APIKey = getConfigValue(p.APIKey, prefix+"_API_KEY", "")
	if v := os.Getenv(prefix + "_ENABLED"); v != "" {
		p.Enabled = parseBool(v, p.Enabled)
	} else if !p.Enabled && p.APIKey != "" && p.BaseURL != "" {
		p.Enabled = true
	}
	if v := os.Getenv(prefix + "_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			p.TimeoutMs = ms
		}
	}
	if p.RatePerSec <= 0 {
		p.RatePerSec = 5
	}
	if p.Burst <= 0 {
		p.Burst = 10
	}
}

func initCache(C *Config) {
	c := &C.Cache
	c.PageTTLSec = defaultInt(c.PageTTLSec, 5*60)
	c.VideoTTLSec = defaultInt(c.VideoTTLSec, 30*60)
	c.SearchTTLSec = defaultInt(c.SearchTTLSec, 10*60)
	c.CollectionTTLSec = defaultInt(c.CollectionTTLSec, 15*60)
	c.StaleGraceSec = defaultInt(c.StaleGraceSec, 24*60*60)
	c.SweepIntervalSec = defaultInt(c.SweepIntervalSec, 60)
	c.MaxPages = defaultInt(c.MaxPages, 20)
	c.LoadConcurrency = defaultInt(c.LoadConcurrency, 4)
	c.PerPage = defaultInt(c.PerPage, 24)
	C.Mock.TotalPages = defaultInt(C.Mock.TotalPages, 10)
	C.Mock.PerPage = defaultInt(C.Mock.PerPage, c.PerPage)
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package configuration

import (
	"fmt"
	"os"
	"strconv"

	"autoposter-core/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	TikTok      TikTok      `json:"tiktok"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
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
	Username string `json:"username"`
	Password string `json:"password"`
}

// TikTok holds the OAuth client credentials and publish protocol tuning.
type TikTok struct {
	ClientKey          string `json:"clientKey"`
	ClientSecret       string `json:"clientSecret"`
	RedirectURI        string `json:"redirectURI"`
	APIBaseURL         string `json:"apiBaseURL"`
	ChunkSize          int64  `json:"chunkSize"`
	StatusPollAttempts int    `json:"statusPollAttempts"`
	StatusPollInterval int    `json:"statusPollInterval"` // seconds
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initTikTok(&C)
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
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}

	// Optional MSSQL config via environment variables (production)
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = os.Getenv("MSSQL_HOST")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = os.Getenv("MSSQL_PORT")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}

	if C.RedisClient.Host == "" {
		C.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = os.Getenv("REDIS_PORT")
	}
	if C.RedisClient.Username == "" {
		C.RedisClient.Username = os.Getenv("REDIS_USERNAME")
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func initApp(C *Config) {
	// SECRET_KEY from environment overrides the config file when provided
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
}

func initTikTok(C *Config) {
	if v := os.Getenv("TIKTOK_CLIENT_KEY"); v != "" {
		C.TikTok.ClientKey = v
	}
	if v := os.Getenv("TIKTOK_CLIENT_SECRET"); v != "" {
		C.TikTok.ClientSecret = v
	}
	if v := os.Getenv("TIKTOK_REDIRECT_URI"); v != "" {
		C.TikTok.RedirectURI = v
	}
	if v := os.Getenv("TIKTOK_API_BASE"); v != "" {
		C.TikTok.APIBaseURL = v
	}
	if v := os.Getenv("TIKTOK_CHUNK_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			C.TikTok.ChunkSize = n
		}
	}
	if C.TikTok.APIBaseURL == "" {
		C.TikTok.APIBaseURL = "https://open.tiktokapis.com"
	}
	if C.TikTok.ChunkSize == 0 {
		C.TikTok.ChunkSize = 10 * 1024 * 1024
	}
	if C.TikTok.StatusPollAttempts == 0 {
		C.TikTok.StatusPollAttempts = 10
	}
	if C.TikTok.StatusPollInterval == 0 {
		C.TikTok.StatusPollInterval = 2
	}
}

// Validate fails fast at startup when a required value is absent, instead of
// deferring the failure to the first request that needs it.
func Validate() error {
	if C.App.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is not set; JWT authentication cannot work without it")
	}
	tk := GetTikTokConfig()
	if tk.AccessToken == "" && !tk.OAuthConfigured() {
		return fmt.Errorf("TikTok is not configured: set TIKTOK_ACCESS_TOKEN for the static-token mode, " +
			"or TIKTOK_CLIENT_KEY, TIKTOK_CLIENT_SECRET and TIKTOK_REDIRECT_URI for the OAuth mode")
	}
	return nil
}

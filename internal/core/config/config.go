package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	ShutdownSec     int
}

type App struct {
	Name      string
	Env       string
	Version   string
	BuildTime string
	HTTP      HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret             string
	Issuer             string
	AccessTokenTTLMin  int
	RefreshTokenTTLMin int
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) RefreshTTL() time.Duration { return time.Duration(j.RefreshTokenTTLMin) * time.Minute }

type Redis struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	TopRatedTTLSec int    `mapstructure:"topRatedTTLSec"`
}

// Session 刷新令牌白名单存储：redis | memory | none
type Session struct {
	Store string
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type TMDB struct {
	APIKey     string `mapstructure:"apiKey"`
	BaseURL    string `mapstructure:"baseURL"`
	Language   string
	TimeoutSec int
}

type OIDC struct {
	Name     string // 登录请求里的 provider 名
	Issuer   string
	ClientID string `mapstructure:"clientID"`
}

type Kakao struct {
	UserInfoURL string `mapstructure:"userInfoURL"`
}

// Identity 第三方登录；留空即不启用对应 provider
type Identity struct {
	OIDC  OIDC
	Kakao Kakao
}

type Limits struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
	CORSOrigins       []string `mapstructure:"corsOrigins"`
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Session  Session
	TMDB     TMDB `mapstructure:"tmdb"`
	Identity Identity
	HTTP     Limits `mapstructure:"http"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "movie-catalog")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.buildTime", "")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.shutdownSec", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.compress", true)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 14)

	// 无默认值的 key 也要登记，否则 APP_* 环境变量不会参与 Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "movie-catalog")
	v.SetDefault("jwt.accessTokenTTLMin", 30)
	v.SetDefault("jwt.refreshTokenTTLMin", 10080)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.autoMigrate", false)
	v.SetDefault("db.maxOpenConns", 30)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.topRatedTTLSec", 300)
	v.SetDefault("session.store", "redis")

	v.SetDefault("tmdb.apiKey", "")
	v.SetDefault("tmdb.baseURL", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "ko-KR")
	v.SetDefault("tmdb.timeoutSec", 5)

	v.SetDefault("identity.oidc.name", "google")
	v.SetDefault("identity.oidc.issuer", "")
	v.SetDefault("identity.oidc.clientID", "")
	v.SetDefault("identity.kakao.userInfoURL", "https://kapi.kakao.com/v2/user/me")

	v.SetDefault("http.rateLimitRPS", 50)
	v.SetDefault("http.rateLimitBurst", 100)
	v.SetDefault("http.maxConcurrent", 300)
	v.SetDefault("http.maxBodyBytes", 1<<20)
	v.SetDefault("http.requestTimeoutSec", 10)
	v.SetDefault("http.corsOrigins", []string{})
}

// Load 读取 YAML（可缺省）+ APP_* 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// 文件不存在时只用默认值 + 环境变量
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required (APP_JWT_SECRET)")
	}
	switch c.Session.Store {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("config: session.store must be redis, memory or none, got %q", c.Session.Store)
	}
	if c.JWT.AccessTokenTTLMin <= 0 || c.JWT.RefreshTokenTTLMin <= 0 {
		return errors.New("config: jwt token ttl must be positive")
	}
	return nil
}

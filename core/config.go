package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		DSN           string // sqlite only
	}

	ServerConfig struct {
		Address                   string
		DebugAddress              string
		Host                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		LoginRatePerMinute        int
	}

	WorkerConfig struct {
		AlertsSchedule    string
		RemindersSchedule string
		PurgeSchedule     string
		PurgeAfterDays    int
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName                   string
		SecretKey                 string
		EncryptionKey             string
		FrontendBaseURL           string
		PasswordResetTimeoutDelta time.Duration
		DefaultFromEmail          mail.Address

		RedisAddress   string
		RollbarToken   string
		SendgridApiKey string

		Database DatabaseConfig
		Server   ServerConfig
		Worker   WorkerConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig loads the configuration from the environment, after loading "config/.env.<env>" if it exists.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Igreja")
	conf.SetDefault("secretKey", "k2#m8vq!x0z^w7e&r4t(y6u)i9o-p1a$s3d5f%g7h*j")
	conf.SetDefault("encryptionKey", "chave-criptografia-32bytes!")
	conf.SetDefault("frontendBaseUrl", "http://localhost:8080")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("defaultFromName", "Igreja")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("redisAddress", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("dbEngine", "sqlite")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbName", "igreja")
	conf.SetDefault("dbUser", "igreja")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTls", true)
	conf.SetDefault("dbDsn", "file:igreja.db")

	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugAddress", ":4000")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverShutdownTimeout", 10*time.Second)
	conf.SetDefault("jwtExpirationDelta", 8*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("loginRatePerMinute", 10)

	conf.SetDefault("workerAlertsSchedule", "0 6 * * *")
	conf.SetDefault("workerRemindersSchedule", "*/5 * * * *")
	conf.SetDefault("workerPurgeSchedule", "30 3 * * *")
	conf.SetDefault("workerPurgeAfterDays", 30)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:      env,
		Build:    conf.GetString("build"),
		Debug:    conf.GetBool("debug"),
		TestMode: conf.GetBool("testMode"),
		WorkDir:  wd,

		AppName:                   conf.GetString("appName"),
		SecretKey:                 conf.GetString("secretKey"),
		EncryptionKey:             conf.GetString("encryptionKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseUrl"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		DefaultFromEmail: mail.Address{
			Name:    conf.GetString("defaultFromName"),
			Address: conf.GetString("defaultFromEmail"),
		},

		RedisAddress:   conf.GetString("redisAddress"),
		RollbarToken:   conf.GetString("rollbarToken"),
		SendgridApiKey: conf.GetString("sendgridApiKey"),

		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTls"),
			DSN:           conf.GetString("dbDsn"),
		},
		Server: ServerConfig{
			Address:                   conf.GetString("serverAddress"),
			DebugAddress:              conf.GetString("serverDebugAddress"),
			Host:                      conf.GetString("serverHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			LoginRatePerMinute:        conf.GetInt("loginRatePerMinute"),
		},
		Worker: WorkerConfig{
			AlertsSchedule:    conf.GetString("workerAlertsSchedule"),
			RemindersSchedule: conf.GetString("workerRemindersSchedule"),
			PurgeSchedule:     conf.GetString("workerPurgeSchedule"),
			PurgeAfterDays:    conf.GetInt("workerPurgeAfterDays"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory sqlite, test mode, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		WorkDir:                   Getwd(),
		AppName:                   "Igreja",
		SecretKey:                 "test-secret",
		EncryptionKey:             "test-encryption-key",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		DefaultFromEmail:          mail.Address{Name: "Igreja", Address: "noreply@localhost"},
		Database: DatabaseConfig{
			Engine: "sqlite",
			DSN:    "file::memory:",
		},
		Server: ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			LoginRatePerMinute:        1000,
		},
		Worker: WorkerConfig{
			AlertsSchedule:    "0 6 * * *",
			RemindersSchedule: "*/5 * * * *",
			PurgeSchedule:     "30 3 * * *",
			PurgeAfterDays:    30,
		},
	}
}

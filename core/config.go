package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                string
		Host                   string
		DebugHost              string
		ShutdownTimeout        time.Duration
		DisableReqLogs         bool
		SessionCookieName      string
		SessionExpirationDelta time.Duration
		SecureCookies          bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Dummy         bool // in-memory store, nothing is persisted
	}

	MediaConfig struct {
		Root               string
		URLPrefix          string
		MaxUploadSize      int64
		MaxImageDimension  int
		DefaultSchoolImage string
	}

	AdminConfig struct {
		Username string
		Password string
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		// principals can log in right after registration
		PrincipalAutoActivate     bool
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Media    MediaConfig
		Admin    AdminConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig loads the configuration of the current environment (ENV: DEV (default), TEST, QA, PROD).
// Values are read from `<ENV>_<KEY>` environment variables, optionally seeded from config/.env.<env>.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "EduQuest")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w0q5-ker)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:8000")
	conf.SetDefault("defaultFromEmail", "EduQuest <noreply@localhost>")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("principalAutoActivate", true)
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.sessionCookieName", "session")
	conf.SetDefault("server.sessionExpirationDelta", 24*time.Hour)
	conf.SetDefault("server.secureCookies", false)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "eduquest")
	conf.SetDefault("database.user", "eduquest")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.dummy", false)

	conf.SetDefault("media.root", "media")
	conf.SetDefault("media.urlPrefix", "/static")
	conf.SetDefault("media.maxUploadSize", int64(16<<20))
	conf.SetDefault("media.maxImageDimension", 1600)
	conf.SetDefault("media.defaultSchoolImage", "/static/images/default-school.jpg")

	conf.SetDefault("admin.username", "admin")
	conf.SetDefault("admin.password", "admin123")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := workDir()

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

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:                       env,
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		AppName:                   conf.GetString("appName"),
		Build:                     conf.GetString("build"),
		WorkDir:                   wd,
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		DefaultFromEmail:          *fromEmail,
		SendgridApiKey:            conf.GetString("sendgridApiKey"),
		RollbarToken:              conf.GetString("rollbarToken"),
		PrincipalAutoActivate:     conf.GetBool("principalAutoActivate"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Address:                conf.GetString("server.address"),
			Host:                   conf.GetString("server.host"),
			DebugHost:              conf.GetString("server.debugHost"),
			ShutdownTimeout:        conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:         conf.GetBool("server.disableReqLogs"),
			SessionCookieName:      conf.GetString("server.sessionCookieName"),
			SessionExpirationDelta: conf.GetDuration("server.sessionExpirationDelta"),
			SecureCookies:          conf.GetBool("server.secureCookies"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
			Dummy:         conf.GetBool("database.dummy"),
		},
		Media: MediaConfig{
			Root:               resolvePath(wd, conf.GetString("media.root")),
			URLPrefix:          strings.TrimRight(conf.GetString("media.urlPrefix"), "/"),
			MaxUploadSize:      conf.GetInt64("media.maxUploadSize"),
			MaxImageDimension:  conf.GetInt("media.maxImageDimension"),
			DefaultSchoolImage: conf.GetString("media.defaultSchoolImage"),
		},
		Admin: AdminConfig{
			Username: conf.GetString("admin.username"),
			Password: conf.GetString("admin.password"),
		},
	}
}

// SubjectPrefix is prepended to outgoing email subjects.
func (c *Config) SubjectPrefix() string {
	return fmt.Sprintf("[%s] ", c.AppName)
}

// workDir returns $WORKDIR if set, the current working directory otherwise.
func workDir() string {
	if wd := os.Getenv("WORKDIR"); wd != "" {
		return wd
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return wd
}

func resolvePath(wd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(wd, p)
}

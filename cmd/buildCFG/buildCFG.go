package buildCFG

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"

	NotifySync  = "sync"
	NotifyQueue = "queue"
)

type ServerConfig struct {
	Port        string
	GinMode     string
	MaxUploadMB int64
}

type StoreConfig struct {
	Driver      string
	DataFile    string
	UploadDir   string
	PostgresDSN string
}

type TicketConfig struct {
	Unique bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type NotifyConfig struct {
	Mode string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

// Load reads configPath and a local .env file; RIFA_* variables override both
// (smtp.password -> RIFA_SMTP_PASSWORD). A missing config file is not an error.
func Load(configPath string, log *zerolog.Logger) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("RIFA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return v, nil
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", configPath).Msg("config file not found, using defaults and environment")
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.data_file", "data/participations.json")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("tickets.unique", false)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("notify.mode", NotifySync)

	v.SetDefault("rabbit.url", "")
	v.SetDefault("rabbit.exchange", "rifa.notifications")
	v.SetDefault("rabbit.queue", "rifa.ticket_emails")
}

func BuildServerConfig(v *viper.Viper, log *zerolog.Logger) ServerConfig {
	cfg := ServerConfig{
		Port:        v.GetString("server.port"),
		GinMode:     v.GetString("server.gin_mode"),
		MaxUploadMB: v.GetInt64("server.max_upload_mb"),
	}
	log.Info().Str("port", cfg.Port).Str("gin_mode", cfg.GinMode).Msg("server config loaded")
	return cfg
}

func BuildStoreConfig(v *viper.Viper, log *zerolog.Logger) (StoreConfig, error) {
	cfg := StoreConfig{
		Driver:      strings.ToLower(v.GetString("storage.driver")),
		DataFile:    v.GetString("storage.data_file"),
		UploadDir:   v.GetString("storage.upload_dir"),
		PostgresDSN: v.GetString("storage.postgres_dsn"),
	}
	switch cfg.Driver {
	case DriverFile:
		if cfg.DataFile == "" {
			return StoreConfig{}, errors.New("storage.data_file is required for the file driver")
		}
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return StoreConfig{}, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return StoreConfig{}, fmt.Errorf("unknown storage.driver %q", cfg.Driver)
	}
	if cfg.UploadDir == "" {
		return StoreConfig{}, errors.New("storage.upload_dir is required")
	}
	log.Info().Str("driver", cfg.Driver).Str("upload_dir", cfg.UploadDir).Msg("storage config loaded")
	return cfg, nil
}

func BuildTicketConfig(v *viper.Viper) TicketConfig {
	return TicketConfig{Unique: v.GetBool("tickets.unique")}
}

func BuildSMTPConfig(v *viper.Viper, log *zerolog.Logger) (SMTPConfig, error) {
	cfg := SMTPConfig{
		Host:     v.GetString("smtp.host"),
		Port:     v.GetInt("smtp.port"),
		Username: v.GetString("smtp.username"),
		Password: v.GetString("smtp.password"),
		From:     v.GetString("smtp.from"),
	}
	if cfg.From == "" && cfg.Username == "" {
		return SMTPConfig{}, errors.New("smtp.from or smtp.username is required as the sender address")
	}
	if cfg.Username == "" {
		log.Warn().Msg("smtp.username is empty, mail relay will be used without authentication")
	}
	return cfg, nil
}

func BuildNotifyConfig(v *viper.Viper) (NotifyConfig, error) {
	cfg := NotifyConfig{Mode: strings.ToLower(v.GetString("notify.mode"))}
	if cfg.Mode != NotifySync && cfg.Mode != NotifyQueue {
		return NotifyConfig{}, fmt.Errorf("unknown notify.mode %q", cfg.Mode)
	}
	return cfg, nil
}

func BuildRabbitConfig(v *viper.Viper, log *zerolog.Logger) (RabbitConfig, error) {
	cfg := RabbitConfig{
		Url:      v.GetString("rabbit.url"),
		Exchange: v.GetString("rabbit.exchange"),
		Queue:    v.GetString("rabbit.queue"),
	}
	if cfg.Url == "" || cfg.Exchange == "" || cfg.Queue == "" {
		return RabbitConfig{}, errors.New("rabbit.url, rabbit.exchange and rabbit.queue are required for queue notifications")
	}
	log.Info().Str("exchange", cfg.Exchange).Str("queue", cfg.Queue).Msg("rabbit config loaded")
	return cfg, nil
}

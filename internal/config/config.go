package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App            App            `mapstructure:",squash"`
	Server         Server         `mapstructure:",squash"`
	Database       Database       `mapstructure:",squash"`
	Snapchat       Snapchat       `mapstructure:",squash"`
	HTTP           HTTP           `mapstructure:",squash"`
	Auth           Auth           `mapstructure:",squash"`
	ExtractionSync ExtractionSync `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Database habilita o espelhamento das tabelas no Postgres quando URL não está vazia
type Database struct {
	URL string `mapstructure:"database_url"`
}

func (d Database) Enabled() bool {
	return d.URL != ""
}

type Snapchat struct {
	APIURL   string `mapstructure:"snapchat_api_url"`
	TokenURL string `mapstructure:"snapchat_token_url"`
}

type HTTP struct {
	Timeout           time.Duration `mapstructure:"http_timeout"`
	MaxRetries        int           `mapstructure:"http_max_retries"`
	BackoffFactor     time.Duration `mapstructure:"http_backoff_factor"`
	MaxBackoff        time.Duration `mapstructure:"http_max_backoff"`
	RequestsPerSecond float64       `mapstructure:"http_requests_per_second"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

type ExtractionSync struct {
	CronSchedule string `mapstructure:"extraction_sync_cron"`
	Enabled      bool   `mapstructure:"extraction_sync_enabled"`
}

// JobConfigPath é o caminho do config.json do componente dentro do diretório de dados
func (c *Config) JobConfigPath() string {
	return filepath.Join(c.App.DataDir, "config.json")
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_DIR", "/data")

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8000")

	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("SNAPCHAT_API_URL", "https://adsapi.snapchat.com/v1/")
	v.SetDefault("SNAPCHAT_TOKEN_URL", "https://accounts.snapchat.com/login/oauth2/access_token")

	v.SetDefault("HTTP_TIMEOUT", "60s")
	v.SetDefault("HTTP_MAX_RETRIES", 10)
	v.SetDefault("HTTP_BACKOFF_FACTOR", "300ms")
	v.SetDefault("HTTP_MAX_BACKOFF", "2m")
	v.SetDefault("HTTP_REQUESTS_PER_SECOND", 0) // 0 = sem limite

	v.SetDefault("AUTH_SECRET", "")

	v.SetDefault("EXTRACTION_SYNC_CRON", "0 4 * * *") // Todos os dias às 4h da manhã
	v.SetDefault("EXTRACTION_SYNC_ENABLED", true)
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile()

	v := viper.New()
	SetDefaults(v)

	// O runner do Keboola exporta o diretório de dados como KBC_DATADIR
	if err := v.BindEnv("DATA_DIR", "DATA_DIR", "KBC_DATADIR"); err != nil {
		return nil, err
	}
	v.AutomaticEnv()

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	config := &Config{}

	err := v.Unmarshal(config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Debug("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Debug("Arquivo .env carregado de:", location)
			return
		}
	}

	logrus.Debug("Nenhum arquivo .env encontrado, usando apenas variáveis de ambiente")
}

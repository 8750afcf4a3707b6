// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек всех сервисов.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	Telegram                `yaml:"telegram"`
	Providers               `yaml:"payment_providers"`
	Subscription            `yaml:"subscription"`
	Scheduler               `yaml:"scheduler"`
	JWTToken                `yaml:"jwttoken"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для настройки подключения к брокеру сообщений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// Telegram структура для доставки уведомлений через Bot API.
type Telegram struct {
	BotToken    string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	SendTimeout time.Duration `yaml:"send_timeout" env-default:"10s"`
}

// Providers хранит секреты проверки подписи вебхуков по провайдерам.
type Providers struct {
	YookassaWebhookSecret string `yaml:"yookassa_webhook_secret" env:"YOOKASSA_WEBHOOK_SECRET"`
	StripeWebhookSecret   string `yaml:"stripe_webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
}

// Subscription хранит параметры пробного периода.
type Subscription struct {
	TrialDays int `yaml:"trial_days" env-default:"7"`
}

// Scheduler хранит интервалы периодических задач адаптации.
type Scheduler struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval" env-default:"24h"`
	TrendInterval       time.Duration `yaml:"trend_interval" env-default:"24h"`
	RenewalInterval     time.Duration `yaml:"renewal_interval" env-default:"24h"`
	CheckinInterval     time.Duration `yaml:"checkin_interval" env-default:"24h"`
	PlanInterval        time.Duration `yaml:"plan_interval" env-default:"168h"`
}

// JWTToken структура для работы с jwt-токеном админского API.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Admin хранит учётные данные администратора (пароль — bcrypt-хэш).
type Admin struct {
	AdminUsername     string `yaml:"username" env-default:"admin"`
	AdminPasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

// TrialPeriod возвращает длительность пробного периода.
func (c *Config) TrialPeriod() time.Duration {
	return time.Duration(c.TrialDays) * 24 * time.Hour
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

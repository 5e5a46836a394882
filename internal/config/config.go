package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Типы объектного хранилища
const (
	StorageS3 = "s3"
	StorageB2 = "b2"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Storage   StorageConfig
	S3        S3Config
	B2        B2Config
	Converter ConverterConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// Лимит multipart формы загрузки
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" envDefault:"104857600" validate:"min=1"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost" validate:"required"`
	Port            int           `env:"DB_PORT" envDefault:"5432" validate:"min=1,max=65535"`
	User            string        `env:"DB_USER" envDefault:"geo2topo" validate:"required"`
	Password        string        `env:"DB_PASSWORD" envDefault:"secret"`
	Name            string        `env:"DB_NAME" envDefault:"geo2topo" validate:"required"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"2" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	// Применять миграции при старте
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost" validate:"required"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type QueueConfig struct {
	// Количество одновременных конвертаций в воркере
	Concurrency int `env:"QUEUE_CONCURRENCY" envDefault:"4" validate:"min=1"`
	MaxRetry    int `env:"QUEUE_MAX_RETRY" envDefault:"3" validate:"min=0"`
}

type StorageConfig struct {
	// s3 или b2
	Type string `env:"STORAGE_TYPE" envDefault:"s3" validate:"oneof=s3 b2"`
	// Время жизни presigned ссылки на результат
	URLExpiry time.Duration `env:"STORAGE_URL_EXPIRY" envDefault:"1h" validate:"min=1s"`
}

type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"S3_BUCKET" envDefault:"geodata"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

type B2Config struct {
	KeyID          string `env:"B2_KEY_ID"`
	ApplicationKey string `env:"B2_APPLICATION_KEY"`
	BucketName     string `env:"B2_BUCKET" envDefault:"geodata"`
	Prefix         string `env:"B2_PREFIX" envDefault:""`
}

type ConverterConfig struct {
	// Каталог промежуточных файлов, пустой означает системный temp
	WorkDir string `env:"CONVERTER_WORK_DIR" envDefault:""`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error dpanic panic fatal"`
	// json или console
	Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Storage.Type {
	case StorageS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required for s3 storage")
		}
	case StorageB2:
		if c.B2.KeyID == "" || c.B2.ApplicationKey == "" || c.B2.BucketName == "" {
			return fmt.Errorf("B2_KEY_ID, B2_APPLICATION_KEY and B2_BUCKET are required for b2 storage")
		}
	}

	return nil
}

package env

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/simsaas/simsaas/pkg/log"
)

var variables = new(Environment)

// Process the environment variables set for simsaas. An optional
// dotenv file (SIMSAAS_ENV_FILE, default ".env") is loaded first;
// variables already present in the environment take precedence.
func Process() error {
	if err := loadDotenv(); err != nil {
		return errors.Wrap(err, "failed to load dotenv file")
	}

	if err := envconfig.Process("simsaas", variables); err != nil {
		return errors.Wrap(err, "failed to process environment variables")
	}

	// set the log level
	if err := log.SetLevel(variables.LogLevel); err != nil {
		return errors.Wrap(err, "failed to set log level")
	}

	return nil
}

func loadDotenv() error {
	path := os.Getenv("SIMSAAS_ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return godotenv.Load(path)
}

// Variables returns the processed environment variables.
func Variables() Environment {
	return *variables
}

// Environment defines the environment variables used
// by simsaas.
type Environment struct {
	LogLevel                string        `default:"info" split_words:"true"`
	Port                    int           `default:"3001"`
	DatabaseType            string        `default:"postgres" split_words:"true"`
	DatabaseDSN             string        `default:"host=localhost user=postgres password=postgres dbname=simsaas port=5432 sslmode=disable" envconfig:"DATABASE_DSN"`
	RedisAddr               string        `default:"localhost:6379" split_words:"true"`
	RedisPassword           string        `default:"" split_words:"true"`
	RedisDB                 int           `default:"0" envconfig:"REDIS_DB"`
	QueueName               string        `default:"simsaas-jobs" split_words:"true"`
	WorkerConcurrency       int           `default:"5" split_words:"true"`
	WorkerRateLimit         int           `default:"10" split_words:"true"`
	WorkerRateInterval      time.Duration `default:"1s" split_words:"true"`
	JobAttempts             int           `default:"3" split_words:"true"`
	JobBackoff              time.Duration `default:"1s" split_words:"true"`
	CompletedRetentionCount int           `default:"1000" split_words:"true"`
	CompletedRetentionAge   time.Duration `default:"168h" split_words:"true"`
	FailedRetentionCount    int           `default:"5000" split_words:"true"`
	FailedRetentionAge      time.Duration `default:"336h" split_words:"true"`
	JanitorSchedule         string        `default:"@every 1m" split_words:"true"`
	MeshWorkDuration        time.Duration `default:"5s" split_words:"true"`
	ShutdownTimeout         time.Duration `default:"10s" split_words:"true"`
}

package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type EnvTestSuite struct {
	suite.Suite
}

func (s *EnvTestSuite) SetupTest() {
	s.T().Setenv("SIMSAAS_ENV_FILE", filepath.Join(s.T().TempDir(), "missing.env"))
}

func (s *EnvTestSuite) TestProcess() {
	assert.Nil(s.T(), Process())
	assert.NotNil(s.T(), Variables())
	assert.Equal(s.T(), "info", Variables().LogLevel)
	assert.Equal(s.T(), 3001, Variables().Port)
	assert.Equal(s.T(), 5, Variables().WorkerConcurrency)
	assert.Equal(s.T(), 10, Variables().WorkerRateLimit)
	assert.Equal(s.T(), time.Second, Variables().WorkerRateInterval)
	assert.Equal(s.T(), 3, Variables().JobAttempts)
	assert.Equal(s.T(), 1000, Variables().CompletedRetentionCount)
	assert.Equal(s.T(), 7*24*time.Hour, Variables().CompletedRetentionAge)
	assert.Equal(s.T(), 5000, Variables().FailedRetentionCount)
	assert.Equal(s.T(), 14*24*time.Hour, Variables().FailedRetentionAge)
	assert.Equal(s.T(), "simsaas-jobs", Variables().QueueName)
}

func (s *EnvTestSuite) TestProcessReadsSplitWords() {
	s.T().Setenv("SIMSAAS_REDIS_ADDR", "redis:6380")
	s.T().Setenv("SIMSAAS_DATABASE_TYPE", "sqlite")
	assert.Nil(s.T(), Process())
	assert.Equal(s.T(), "redis:6380", Variables().RedisAddr)
	assert.Equal(s.T(), "sqlite", Variables().DatabaseType)
}

func (s *EnvTestSuite) TestProcessLoadsDotenv() {
	path := filepath.Join(s.T().TempDir(), "test.env")
	s.Require().NoError(os.WriteFile(path, []byte("SIMSAAS_QUEUE_NAME=from-dotenv\n"), 0o600))
	s.T().Setenv("SIMSAAS_ENV_FILE", path)
	// godotenv.Load does not override, so make sure the key starts unset
	// and is cleaned up afterwards.
	s.T().Setenv("SIMSAAS_QUEUE_NAME", "")
	s.Require().NoError(os.Unsetenv("SIMSAAS_QUEUE_NAME"))

	assert.Nil(s.T(), Process())
	assert.Equal(s.T(), "from-dotenv", Variables().QueueName)
}

func (s *EnvTestSuite) TestProcessInvalidTypeFailure() {
	s.T().Setenv("SIMSAAS_PORT", "not_a_port")
	assert.NotNil(s.T(), Process())
}

func (s *EnvTestSuite) TestProcessInvalidLogLevelFailure() {
	s.T().Setenv("SIMSAAS_LOG_LEVEL", "bogus")
	assert.NotNil(s.T(), Process())
}

func TestEnvTestSuite(t *testing.T) {
	suite.Run(t, new(EnvTestSuite))
}

//go:build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/simsaas/simsaas/cmd/console/api"
	"github.com/simsaas/simsaas/cmd/console/config"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite drives a running `simsaas start` instance
// (API and worker) reachable at SIMSAAS_HOST.
type IntegrationTestSuite struct {
	suite.Suite
	baseURL string
	client  *api.Client
	ctx     context.Context
}

func (s *IntegrationTestSuite) SetupSuite() {
	host := os.Getenv("SIMSAAS_HOST")
	if host == "" {
		host = "localhost"
	}
	s.baseURL = fmt.Sprintf("http://%v:3001", host)

	s.T().Setenv("SIMSAAS_BASE_URL", s.baseURL)
	cfg, err := config.Load()
	s.Require().NoError(err)

	s.client = api.New(cfg)
	s.ctx = context.Background()
}

func (s *IntegrationTestSuite) TestHealth() {
	resp, err := http.Get(fmt.Sprintf("%v/health", s.baseURL))
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NoError(resp.Body.Close())
}

func (s *IntegrationTestSuite) seedMesh() int64 {
	p, err := s.client.Projects().Create(s.ctx, "integration")
	s.Require().NoError(err)

	g, err := s.client.Geometries().Create(s.ctx, p.ID, "https://files.example.com/integration.step")
	s.Require().NoError(err)

	m, err := s.client.Meshes().Create(s.ctx, g.ID, 3)
	s.Require().NoError(err)

	return m.ID
}

func (s *IntegrationTestSuite) TestJobRunsToSuccess() {
	meshID := s.seedMesh()

	sub, err := s.client.Jobs().Submit(s.ctx, meshID)
	s.Require().NoError(err)
	s.Equal("PENDING", sub.CurrentStatus)
	s.Equal("job_"+sub.JobID, sub.QueueID)

	var job *api.Job
	s.Eventually(func() bool {
		job, err = s.client.Jobs().Get(s.ctx, sub.JobID)
		return err == nil && job.Status == "SUCCESS"
	}, 60*time.Second, 500*time.Millisecond)

	s.Require().NotNil(job.Result)
	s.Equal(fmt.Sprintf("mock/results/job_%s_mesh_%d.dat", sub.JobID, meshID), job.Result.FileURL)
	s.NotNil(job.StartedAt)
	s.NotNil(job.FinishedAt)

	page, err := s.client.Monitor().Logs(s.ctx, sub.QueueID, 0, -1)
	s.Require().NoError(err)
	s.NotZero(page.Count)
}

func (s *IntegrationTestSuite) TestSubmitUnknownMesh() {
	_, err := s.client.Jobs().Submit(s.ctx, 1<<62)
	s.True(api.IsNotFound(err), "got %v", err)
}

func (s *IntegrationTestSuite) TestStatusRejectsMalformedID() {
	_, err := s.client.Jobs().Get(s.ctx, "abc")

	var apiErr *api.Error
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusBadRequest, apiErr.Status)
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

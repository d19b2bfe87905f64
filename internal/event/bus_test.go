package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BusTestSuite struct {
	suite.Suite
	bus Bus
}

func (s *BusTestSuite) SetupTest() {
	s.bus = New()
}

func (s *BusTestSuite) TestPublishMatchingSubscriber() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.bus.Subscribe(ctx, Filter{JobID: 7})
	s.Require().NoError(err)

	s.bus.Publish(Event{Type: TypeJobRunning, JobID: 8})
	s.bus.Publish(Event{Type: TypeJobRunning, JobID: 7})

	select {
	case e := <-ch:
		s.Equal(int64(7), e.JobID)
		s.False(e.Timestamp.IsZero())
	case <-time.After(time.Second):
		s.Fail("expected event")
	}
}

func (s *BusTestSuite) TestTypeFilter() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.bus.Subscribe(ctx, Filter{Types: []Type{TypeJobFailed}})
	s.Require().NoError(err)

	s.bus.Publish(Event{Type: TypeJobProgress, JobID: 1, Progress: 40})
	s.bus.Publish(Event{Type: TypeJobFailed, JobID: 1, Error: "boom"})

	e := <-ch
	s.Equal(TypeJobFailed, e.Type)
	s.Equal("boom", e.Error)
}

func (s *BusTestSuite) TestPublishDropsWhenFull() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.bus.Subscribe(ctx, Filter{})
	s.Require().NoError(err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			s.bus.Publish(Event{Type: TypeJobProgress, JobID: int64(i + 1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("publish blocked on a full subscriber")
	}
	s.Len(ch, cap(ch))
}

func (s *BusTestSuite) TestCancelClosesChannel() {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.bus.Subscribe(ctx, Filter{})
	s.Require().NoError(err)

	cancel()

	s.Eventually(func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}

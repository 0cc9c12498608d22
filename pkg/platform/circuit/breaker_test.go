package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) newBreaker(opts ...Option) *Breaker {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New("rabbitmq", opts...)
}

func (s *BreakerSuite) fail(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestDefaults() {
	b := s.newBreaker()

	s.Equal("rabbitmq", b.Name())
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())

	s.fail(b, defaultFailureThreshold-1)
	s.False(b.IsOpen(), "one below the default threshold stays closed")
	s.fail(b, 1)
	s.True(b.IsOpen())
}

func (s *BreakerSuite) TestOpensOnlyOnConsecutiveFailures() {
	b := s.newBreaker(WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	s.False(useFallback)
	s.False(change.Opened)

	b.RecordSuccess()
	useFallback, change = b.RecordFailure()
	s.False(useFallback, "success in between restarts the failure run")
	s.False(change.Opened)

	useFallback, change = b.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened)
	s.Equal("open", b.State().String())

	_, change = b.RecordFailure()
	s.False(change.Opened, "already open reports no transition")
}

func (s *BreakerSuite) TestCooldownGatesProbes() {
	b := s.newBreaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	b.RecordFailure()

	s.False(b.Allow())
	s.now = s.now.Add(59 * time.Second)
	s.False(b.Allow())
	s.now = s.now.Add(time.Second)
	s.True(b.Allow(), "probe admitted once the cooldown has elapsed")

	b.RecordFailure()
	s.False(b.Allow(), "failed probe restarts the cooldown")
	s.now = s.now.Add(time.Minute)
	s.True(b.Allow())
}

func (s *BreakerSuite) TestRecoveryNeedsSuccessRun() {
	b := s.newBreaker(WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	usePrimary, change := b.RecordSuccess()
	s.False(usePrimary)
	s.False(change.Closed)

	b.RecordFailure()
	usePrimary, _ = b.RecordSuccess()
	s.False(usePrimary, "failure between probes restarts the success run")

	usePrimary, change = b.RecordSuccess()
	s.True(usePrimary)
	s.True(change.Closed)
	s.Equal(StateClosed, b.State())
}

func (s *BreakerSuite) TestReset() {
	b := s.newBreaker(WithFailureThreshold(1), WithCooldown(time.Hour))
	b.RecordFailure()
	s.Require().True(b.IsOpen())

	b.Reset()
	s.False(b.IsOpen())
	s.True(b.Allow())
}

func TestOptionsIgnoreNonPositiveValues(t *testing.T) {
	b := New("kafka", WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(0))

	require.Equal(t, defaultFailureThreshold, b.failureThreshold)
	assert.Equal(t, defaultSuccessThreshold, b.successThreshold)
	assert.Equal(t, defaultCooldown, b.cooldown)
}

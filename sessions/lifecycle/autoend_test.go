package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/etcd/fakes"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/internal/retry"
	"github.com/imtaco/livecast/internal/scheduler"
	"github.com/imtaco/livecast/sessions"
	"github.com/imtaco/livecast/sessions/mocks"
	"github.com/imtaco/livecast/sessions/store"
)

const (
	grace       = 15 * time.Second
	waitTimeout = time.Second
)

type AutoEnderTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockRooms *mocks.MockRooms
	clock     *clockwork.FakeClock
	mgr       *Manager
	ctx       context.Context
	closed    chan sessions.EndedEvent
	evicted   chan sessions.EndedEvent

	// session ids with a bound broadcaster
	broadcasting *sync.Map
}

func TestAutoEnderSuite(t *testing.T) {
	suite.Run(t, new(AutoEnderTestSuite))
}

func (s *AutoEnderTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRooms = mocks.NewMockRooms(s.ctrl)
	s.mockRooms.EXPECT().AnnounceIdle(gomock.Any(), gomock.Any()).Return(0).AnyTimes()
	s.mockRooms.EXPECT().
		CloseRoom(gomock.Any(), constants.EventSessionEnded, gomock.Any()).
		DoAndReturn(func(_, _ string, payload any) int {
			s.closed <- payload.(sessions.EndedEvent)
			return 0
		}).
		AnyTimes()
	s.mockRooms.EXPECT().
		EvictRoom(gomock.Any(), constants.EventSessionEnded, gomock.Any()).
		DoAndReturn(func(_, _ string, payload any) int {
			s.evicted <- payload.(sessions.EndedEvent)
			return 0
		}).
		AnyTimes()
	s.mockRooms.EXPECT().
		Broadcasting(gomock.Any()).
		DoAndReturn(func(id string) bool {
			_, ok := s.broadcasting.Load(id)
			return ok
		}).
		AnyTimes()
	s.clock = clockwork.NewFakeClock()
	s.ctx = context.Background()
	s.closed = make(chan sessions.EndedEvent, 4)
	s.evicted = make(chan sessions.EndedEvent, 4)
	s.broadcasting = &sync.Map{}

	st := store.NewEtcdStore(fakes.NewEtcdKV(), "/test/", log.NewNop())
	mgr, err := NewManager(st, s.mockRooms, RecordingConfig{Required: true}, 16, s.clock, log.NewNop())
	s.Require().NoError(err)
	s.mgr = mgr
}

func (s *AutoEnderTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AutoEnderTestSuite) newEnder(cfg DisconnectConfig) *AutoEnder {
	// timers fire on their own goroutines, possibly after the test returns
	logger := log.NewNop()
	a := NewAutoEnder(
		s.mgr,
		s.mockRooms,
		scheduler.NewKeyedTimer(s.clock, logger),
		retry.New(logger, retry.Config{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  100 * time.Millisecond,
		}, retry.WithRetryIf(Retryable)),
		cfg,
		logger,
	)
	s.T().Cleanup(a.Stop)
	return a
}

func (s *AutoEnderTestSuite) start(withRecording bool) string {
	sess, err := s.mgr.StartSession(s.ctx, ada, sessions.StartParams{Title: "Math 101"})
	s.Require().NoError(err)
	if withRecording {
		_, err = s.mgr.AttachRecording(s.ctx, sess.ID, "https://cdn/math101.webm", ada)
		s.Require().NoError(err)
	}
	return sess.ID
}

func (s *AutoEnderTestSuite) expectClosed(want sessions.EndedEvent) {
	select {
	case got := <-s.closed:
		s.Equal(want, got)
	case <-time.After(waitTimeout):
		s.Fail("room was not closed")
	}
}

func (s *AutoEnderTestSuite) expectEvicted(want sessions.EndedEvent) {
	select {
	case got := <-s.evicted:
		s.Equal(want, got)
	case <-time.After(waitTimeout):
		s.Fail("room was not evicted")
	}
}

func (s *AutoEnderTestSuite) expectQuiet() {
	select {
	case got := <-s.closed:
		s.Failf("unexpected close", "%+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *AutoEnderTestSuite) status(id string) sessions.Status {
	sess, err := s.mgr.GetSession(s.ctx, id)
	s.Require().NoError(err)
	return sess.Status
}

func (s *AutoEnderTestSuite) TestEndsAfterGracePeriod() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: grace})
	id := s.start(true)

	a.OnBroadcasterLost(id)
	s.True(a.Pending(id))

	s.clock.Advance(grace - time.Second)
	s.expectQuiet()
	s.Equal(sessions.StatusLive, s.status(id))

	s.clock.Advance(time.Second)
	s.expectClosed(sessions.EndedEvent{SessionID: id, Reason: constants.EndReasonBroadcasterLost})
	s.Equal(sessions.StatusEnded, s.status(id))
	s.False(a.Pending(id))
}

func (s *AutoEnderTestSuite) TestRejoinCancels() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: grace})
	id := s.start(true)

	a.OnBroadcasterLost(id)
	a.OnBroadcasterJoined(id)
	s.False(a.Pending(id))

	s.clock.Advance(2 * grace)
	s.expectQuiet()
	s.Equal(sessions.StatusLive, s.status(id))
}

func (s *AutoEnderTestSuite) TestWithoutRecordingOnlyEvictsRoom() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: grace})
	id := s.start(false)

	a.OnBroadcasterLost(id)
	s.clock.Advance(grace)

	s.expectEvicted(sessions.EndedEvent{SessionID: id, Reason: constants.EndReasonBroadcasterLost})
	s.expectQuiet()
	s.Equal(sessions.StatusLive, s.status(id))
}

func (s *AutoEnderTestSuite) TestBroadcasterPresentAtExpiry() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: grace})
	id := s.start(true)

	// the owner is back but the join notice never reached the timer
	a.OnBroadcasterLost(id)
	s.broadcasting.Store(id, struct{}{})

	s.clock.Advance(grace)
	s.Eventually(func() bool { return !a.Pending(id) }, waitTimeout, 10*time.Millisecond)
	s.expectQuiet()
	s.Equal(sessions.StatusLive, s.status(id))
}

func (s *AutoEnderTestSuite) TestZeroGraceFiresImmediately() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: 0})
	id := s.start(true)

	a.OnBroadcasterLost(id)

	s.expectClosed(sessions.EndedEvent{SessionID: id, Reason: constants.EndReasonBroadcasterLost})
	s.Equal(sessions.StatusEnded, s.status(id))
}

func (s *AutoEnderTestSuite) TestDisabledOnlyNotifies() {
	a := s.newEnder(DisconnectConfig{AutoEnd: false, GracePeriod: grace})
	id := s.start(true)

	a.OnBroadcasterLost(id)
	s.False(a.Pending(id))

	s.clock.Advance(2 * grace)
	s.expectQuiet()
	s.Equal(sessions.StatusLive, s.status(id))
}

func (s *AutoEnderTestSuite) TestOwnerEndedFirst() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: grace})
	id := s.start(true)

	a.OnBroadcasterLost(id)
	_, err := s.mgr.EndSession(s.ctx, id, ada)
	s.Require().NoError(err)
	s.expectClosed(sessions.EndedEvent{SessionID: id})

	s.clock.Advance(grace)
	s.Eventually(func() bool { return !a.Pending(id) }, waitTimeout, 10*time.Millisecond)
	s.expectQuiet()
}

func (s *AutoEnderTestSuite) TestUnknownSessionIsIgnored() {
	a := s.newEnder(DisconnectConfig{AutoEnd: true, GracePeriod: 0})

	a.OnBroadcasterLost("missing")
	s.expectQuiet()
}

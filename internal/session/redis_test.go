package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"leaguereg/internal/models"
	"leaguereg/internal/registration"
)

type RedisStoreTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *RedisStore
	ctx    context.Context
}

func (s *RedisStoreTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	store, err := NewRedis(&Config{
		RedisClient: s.client,
		TTL:         time.Hour,
	})
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *RedisStoreTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.Error(err)

	_, err = NewRedis(&Config{})
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestSaveAndLoad() {
	state := registration.State{
		ID:          "wiz-1",
		Kind:        registration.KindTryout,
		CurrentStep: registration.StepPlayerSelect,
		Players: []models.Player{{
			ID:       "65a1f0c2b3d4e5f601234567",
			FullName: "Jamie Parent",
			Seasons:  []models.SeasonRegistration{{Season: "Spring", Year: 2025, TryoutID: "t-1", PaymentStatus: "paid"}},
		}},
		SelectedIDs: []string{"65a1f0c2b3d4e5f601234567"},
		Package:     &models.PricingPackage{ID: "full", Price: "75.50"},
		Target:      registration.Target{Name: "Spring", Year: 2025, TryoutID: "t-1", Match: registration.MatchTryout},
	}

	s.Require().NoError(s.store.Save(s.ctx, state))

	loaded, err := s.store.Load(s.ctx, "wiz-1")
	s.Require().NoError(err)
	s.Equal(state, loaded)

	s.Equal(time.Hour, s.mr.TTL("wizard:wiz-1"))
}

func (s *RedisStoreTestSuite) TestLoadMissing() {
	_, err := s.store.Load(s.ctx, "nope")
	s.ErrorIs(err, ErrWizardNotFound)
}

func (s *RedisStoreTestSuite) TestSaveRequiresID() {
	s.Error(s.store.Save(s.ctx, registration.State{}))
}

func (s *RedisStoreTestSuite) TestWizardExpires() {
	s.Require().NoError(s.store.Save(s.ctx, registration.State{ID: "wiz-2", Kind: registration.KindPlayer}))

	s.mr.FastForward(2 * time.Hour)

	_, err := s.store.Load(s.ctx, "wiz-2")
	s.ErrorIs(err, ErrWizardNotFound)
}

func (s *RedisStoreTestSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, registration.State{ID: "wiz-3", Kind: registration.KindPlayer}))
	s.Require().NoError(s.store.Delete(s.ctx, "wiz-3"))

	_, err := s.store.Load(s.ctx, "wiz-3")
	s.ErrorIs(err, ErrWizardNotFound)
}

func (s *RedisStoreTestSuite) TestLockIsExclusive() {
	ok, err := s.store.Acquire(s.ctx, "wizard:wiz-1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Acquire(s.ctx, "wizard:wiz-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Release(s.ctx, "wizard:wiz-1"))

	ok, err = s.store.Acquire(s.ctx, "wizard:wiz-1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisStoreTestSuite) TestLockExpires() {
	ok, err := s.store.Acquire(s.ctx, "save:players:wiz-1", 30*time.Second)
	s.Require().NoError(err)
	s.True(ok)

	s.mr.FastForward(31 * time.Second)

	ok, err = s.store.Acquire(s.ctx, "save:players:wiz-1", 30*time.Second)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisStoreTestSuite) TestUsableAsSaveLocker() {
	var _ registration.Locker = s.store
}

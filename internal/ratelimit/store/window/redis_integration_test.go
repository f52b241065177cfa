//go:build integration

package window

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vocalmind/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.store = NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) TestAdmission() {
	s.Run("admits exactly up to the limit", func() {
		key := "rl:1.2.3.4:/api/auth/register"
		for i := 0; i < 3; i++ {
			res, err := s.store.Allow(s.ctx, key, 3, time.Minute)
			s.Require().NoError(err)
			s.Require().True(res.Allowed, "request %d", i+1)
		}

		res, err := s.store.Allow(s.ctx, key, 3, time.Minute)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.GreaterOrEqual(res.RetryAfter, 1)
		s.LessOrEqual(res.RetryAfter, 60)
	})

	s.Run("remaining counts down on admission", func() {
		key := "rl:1.2.3.4:/api/auth/login"
		for want := 4; want >= 0; want-- {
			res, err := s.store.Allow(s.ctx, key, 5, time.Minute)
			s.Require().NoError(err)
			s.Require().True(res.Allowed)
			s.Equal(want, res.Remaining)
		}
	})

	s.Run("short window frees capacity", func() {
		key := "rl:5.6.7.8:/api/short"
		res, err := s.store.Allow(s.ctx, key, 1, 300*time.Millisecond)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)

		res, err = s.store.Allow(s.ctx, key, 1, 300*time.Millisecond)
		s.Require().NoError(err)
		s.Require().False(res.Allowed)

		time.Sleep(350 * time.Millisecond)
		res, err = s.store.Allow(s.ctx, key, 1, 300*time.Millisecond)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *RedisStoreSuite) TestCountAndReset() {
	key := "rl:9.9.9.9:/api/other"
	for i := 0; i < 4; i++ {
		_, err := s.store.Allow(s.ctx, key, 100, time.Minute)
		s.Require().NoError(err)
	}

	count, err := s.store.Count(s.ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(4, count)

	s.Require().NoError(s.store.Reset(s.ctx, key))

	count, err = s.store.Count(s.ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(0, count)
}

// TestConcurrentAdmissionRedis verifies the server-side script keeps admission
// exact under concurrent load from one process.
func (s *RedisStoreSuite) TestConcurrentAdmissionRedis() {
	const limit = 20
	const callers = 60

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(s.ctx, "rl:concurrent:/api/endpoint", limit, time.Minute)
			if err != nil {
				s.T().Errorf("allow: %v", err)
				return
			}
			if res.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(limit, admitted)
}

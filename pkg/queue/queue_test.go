package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistroboss/bistro/pkg/queue"
)

// ─── Job types ────────────────────────────────────────────────────────────────

var echoCalls atomic.Int32

type echoJob struct {
	Val string
}

func (j *echoJob) Handle(context.Context) error {
	echoCalls.Add(1)
	return nil
}

var failAttempts atomic.Int32

type failJob struct{}

func (failJob) JobName() string { return "fail" }

func (*failJob) Handle(context.Context) error {
	failAttempts.Add(1)
	return errors.New("always fails")
}

type memStore struct {
	mu   sync.Mutex
	jobs []queue.FailedJob
}

func (s *memStore) SaveFailed(_ context.Context, job queue.FailedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func noBackoff(int) time.Duration { return 0 }

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestDispatchAndRun(t *testing.T) {
	echoCalls.Store(0)
	q := queue.New(queue.NewMemoryDriver(), queue.WithBackoff(noBackoff))
	q.Register(func() queue.Job { return &echoJob{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx, 2)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Dispatch(ctx, &echoJob{Val: "hello"}))
	}

	assert.Eventually(t, func() bool { return echoCalls.Load() == 5 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestFailedJobRetryAndPersist(t *testing.T) {
	failAttempts.Store(0)
	store := &memStore{}
	d := queue.NewMemoryDriver()
	q := queue.New(d,
		queue.WithMaxRetry(3),
		queue.WithBackoff(noBackoff),
		queue.WithFailedStore(store),
	)
	q.Register(func() queue.Job { return &failJob{} })

	require.NoError(t, q.Dispatch(context.Background(), &failJob{}))
	raw, err := d.Pop(context.Background())
	require.NoError(t, err)

	q.Process(context.Background(), raw)

	assert.Equal(t, int32(3), failAttempts.Load())
	require.Len(t, q.FailedJobs(), 1)
	assert.Equal(t, "fail", q.FailedJobs()[0].Type)
	assert.Equal(t, 3, q.FailedJobs()[0].Attempts)
	require.Len(t, store.jobs, 1)
	assert.EqualError(t, store.jobs[0].Err, "always fails")
}

func TestProcess_UnregisteredTypeIsDropped(t *testing.T) {
	q := queue.New(queue.NewMemoryDriver())
	q.Process(context.Background(), []byte(`{"type":"ghost","payload":{}}`))
	q.Process(context.Background(), []byte(`not json`))
	assert.Empty(t, q.FailedJobs())
}

func TestMemoryDriver_Full(t *testing.T) {
	d := queue.NewMemoryDriver()
	for i := 0; i < 1000; i++ {
		require.NoError(t, d.Push(context.Background(), []byte("x")))
	}
	assert.ErrorIs(t, d.Push(context.Background(), []byte("x")), queue.ErrQueueFull)
	assert.Equal(t, 1000, d.Len())
}

func TestDispatchConcurrent(t *testing.T) {
	d := queue.NewMemoryDriver()
	q := queue.New(d)

	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, q.Dispatch(context.Background(), &echoJob{Val: "c"}))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, d.Len())
}

func TestRedisDriver_PushPop(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	d := queue.NewRedisDriver(rdb)
	ctx := context.Background()

	require.NoError(t, d.Push(ctx, []byte("first")))
	require.NoError(t, d.Push(ctx, []byte("second")))

	got, err := d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	got, err = d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestRedisDriver_DelayedJobsArePromoted(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	d := queue.NewRedisDriver(rdb)
	q := queue.New(d)
	ctx := context.Background()

	require.NoError(t, q.DispatchAfter(ctx, &echoJob{Val: "later"}, -time.Second))
	n, err := rdb.ZCard(ctx, "bistro:queue:delayed").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pctx, cancel := context.WithCancel(ctx)
	go d.PromoteDelayed(pctx)
	defer cancel()

	assert.Eventually(t, func() bool {
		l, _ := rdb.LLen(ctx, "bistro:queue:jobs").Result()
		return l == 1
	}, 3*time.Second, 50*time.Millisecond)
}

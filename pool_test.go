package threadpool

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/threadpool/metrics"
)

func newTestPool(t *testing.T, minWorkers, maxWorkers, queueSize uint, opts ...Option) *Pool {
	t.Helper()
	p, err := New(minWorkers, maxWorkers, queueSize, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

// blockingTask signals started when it begins and returns v once gate is closed.
func blockingTask(started chan<- struct{}, gate <-chan struct{}, v int) Task[int] {
	return TaskValue(func(context.Context) int {
		started <- struct{}{}
		<-gate
		return v
	})
}

func requireBlocked[T any](t *testing.T, ch <-chan T, d time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal(msg)
	case <-time.After(d):
	}
}

func requireReceive[T any](t *testing.T, ch <-chan T, d time.Duration, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatal(msg)
	}
	var zero T
	return zero
}

func TestNew_SpawnsMinWorkers(t *testing.T) {
	tests := []struct {
		min, max, queue uint
	}{
		{0, 1, 1},
		{1, 1, 1},
		{2, 4, 2},
		{4, 8, 100},
	}

	for _, tt := range tests {
		p := newTestPool(t, tt.min, tt.max, tt.queue)
		s := p.Status()

		require.False(t, s.Terminated)
		require.Equal(t, int(tt.min), s.NumWorkers)
		require.GreaterOrEqual(t, s.FreeWorkers, 0)
		require.LessOrEqual(t, s.FreeWorkers, int(tt.min))
		require.Len(t, s.Slots, int(tt.max))
		for id, active := range s.Slots {
			require.Equal(t, id < int(tt.min), active, "slot %d", id)
		}
		require.Equal(t, 0, s.QueueLen)
		require.Equal(t, int(tt.queue), s.QueueCap)
	}
}

func TestPool_GrowsUnderLoadAndShrinksToMin(t *testing.T) {
	p := newTestPool(t, 2, 4, 2)

	var peak atomic.Int64
	stopMonitor := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		for {
			n := int64(p.Status().NumWorkers)
			if n > peak.Load() {
				peak.Store(n)
			}
			select {
			case <-stopMonitor:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	futures := make([]*Future[int], 0, 5)
	for i := 0; i < 5; i++ {
		f, err := Submit(p, TaskValue(func(context.Context) int {
			time.Sleep(100 * time.Millisecond)
			return i
		}))
		require.NoError(t, err)
		futures = append(futures, f)
	}

	got := make([]int, 0, len(futures))
	for _, f := range futures {
		v, err := f.Get()
		require.NoError(t, err)
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)

	require.Eventually(t, func() bool { return p.Status().NumWorkers == 2 }, 2*time.Second, 5*time.Millisecond)

	close(stopMonitor)
	<-monitorDone
	require.LessOrEqual(t, peak.Load(), int64(4))
	require.GreaterOrEqual(t, peak.Load(), int64(2))
}

func TestSubmit_BlocksWhileQueueFull(t *testing.T) {
	p := newTestPool(t, 1, 1, 1)

	started := make(chan struct{}, 2)
	gate := make(chan struct{})

	fA, err := Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "first task did not start")

	// Fills the queue: the only worker is busy.
	fB, err := Submit(p, TaskValue(func(context.Context) int { return 2 }))
	require.NoError(t, err)
	require.Equal(t, 1, p.Status().QueueLen)

	type submitResult struct {
		f   *Future[int]
		err error
	}
	cDone := make(chan submitResult, 1)
	go func() {
		f, err := Submit(p, TaskValue(func(context.Context) int { return 3 }))
		cDone <- submitResult{f, err}
	}()

	requireBlocked(t, cDone, 100*time.Millisecond, "submit returned while the queue was full")
	require.Equal(t, 1, p.Status().QueueLen, "blocked submit must not drop or enqueue its task")

	close(gate)

	res := requireReceive(t, cDone, time.Second, "submit did not resume after the queue drained")
	require.NoError(t, res.err)

	for want, f := range map[int]*Future[int]{1: fA, 2: fB, 3: res.f} {
		v, err := f.Get()
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

func TestTerminate_RejectsSubmissionsAndNeverSpawns(t *testing.T) {
	p := newTestPool(t, 1, 4, 4)
	p.Terminate()

	before := p.Status()
	require.True(t, before.Terminated)
	require.True(t, p.Terminated())

	f, err := Submit(p, TaskValue(func(context.Context) int { return 1 }))
	require.ErrorIs(t, err, ErrPoolTerminated)
	require.Nil(t, f)

	f, ok, err := TrySubmit(p, TaskValue(func(context.Context) int { return 1 }))
	require.ErrorIs(t, err, ErrPoolTerminated)
	require.False(t, ok)
	require.Nil(t, f)

	after := p.Status()
	require.Equal(t, 0, after.QueueLen)
	require.LessOrEqual(t, after.NumWorkers, before.NumWorkers)
	require.Equal(t, before.Slots, after.Slots)
}

func TestClose_ReturnsWithQueuedTasksAndJoinsWorkers(t *testing.T) {
	p, err := New(1, 1, 5)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	var finished atomic.Bool

	_, err = Submit(p, TaskValue(func(context.Context) int {
		started <- struct{}{}
		<-gate
		finished.Store(true)
		return 0
	}))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")

	queued := make([]*Future[int], 0, 3)
	for i := 0; i < 3; i++ {
		f, err := Submit(p, TaskValue(func(context.Context) int { return i }))
		require.NoError(t, err)
		queued = append(queued, f)
	}

	closed := make(chan struct{})
	go func() { p.Close(); close(closed) }()

	requireBlocked(t, closed, 50*time.Millisecond, "Close returned while a worker was still running")
	close(gate)
	requireReceive(t, closed, time.Second, "Close did not return")

	require.True(t, finished.Load(), "running task must complete")

	s := p.Status()
	require.True(t, s.Terminated)
	require.Equal(t, 0, s.NumWorkers)
	require.Equal(t, 3, s.QueueLen)
	require.Equal(t, []bool{false}, s.Slots)

	for _, f := range queued {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := f.GetContext(ctx)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded, "abandoned task must stay unfulfilled")
	}

	// Idempotent.
	p.Close()
}

func TestClose_IdleRetiringWorkersAreJoined(t *testing.T) {
	for i := 0; i < 20; i++ {
		p, err := New(0, 3, 3)
		require.NoError(t, err)
		for j := 0; j < 3; j++ {
			_, err := Submit(p, TaskValue(func(context.Context) int { return j }))
			require.NoError(t, err)
		}
		p.Close()
		require.Equal(t, 0, p.Status().NumWorkers)
	}
}

func TestSubmit_FIFODequeueOrder(t *testing.T) {
	p := newTestPool(t, 1, 1, 10)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	_, err := Submit(p, blockingTask(started, gate, -1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "gate task did not start")

	var (
		mu    sync.Mutex
		order []int
	)
	futures := make([]*Future[struct{}], 0, 5)
	for i := 0; i < 5; i++ {
		f, err := Submit(p, TaskError[struct{}](func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
		require.NoError(t, err)
		futures = append(futures, f)
	}

	for i := 1; i < len(futures); i++ {
		require.Greater(t, futures[i].Index(), futures[i-1].Index())
	}

	close(gate)
	for _, f := range futures {
		_, err := f.Get()
		require.NoError(t, err)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTerminate_ConcurrentCallsTransitionOnce(t *testing.T) {
	var buf safeBuffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := newTestPool(t, 1, 2, 2, WithLogger(logger))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			require.NotPanics(t, p.Terminate)
		}()
	}
	close(start)
	wg.Wait()

	require.True(t, p.Status().Terminated)
	require.Equal(t, 1, strings.Count(buf.String(), "pool terminated"))
}

func TestTaskFailure_IsolatedFromPool(t *testing.T) {
	provider := metrics.NewBasicProvider()
	p := newTestPool(t, 1, 1, 2, WithMetrics(provider))

	cause := errors.New("task failed")
	fErr, err := Submit(p, TaskError[int](func(context.Context) error { return cause }))
	require.NoError(t, err)
	_, err = fErr.Get()
	require.ErrorIs(t, err, cause)
	var tf *TaskFailure
	require.ErrorAs(t, err, &tf)
	require.Equal(t, fErr.ID(), tf.TaskID())
	require.Equal(t, fErr.Index(), tf.TaskIndex())

	fPanic, err := Submit(p, TaskFunc(func(context.Context) (int, error) { panic("boom") }))
	require.NoError(t, err)
	_, err = fPanic.Get()
	require.ErrorIs(t, err, ErrTaskPanicked)

	fOK, err := Submit(p, TaskValue(func(context.Context) int { return 42 }))
	require.NoError(t, err)
	v, err := fOK.Get()
	require.NoError(t, err)
	require.Equal(t, 42, v)

	require.Equal(t, 1, p.Status().NumWorkers)
	require.Equal(t, int64(2), provider.CounterValue(metrics.TasksFailed))
	require.Equal(t, int64(1), provider.CounterValue(metrics.TasksPanicked))
	require.Equal(t, int64(1), provider.CounterValue(metrics.TasksCompleted))
}

func TestTerminate_WakesBlockedSubmitter(t *testing.T) {
	p := newTestPool(t, 1, 1, 1)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	defer close(gate)

	_, err := Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")

	fB, err := Submit(p, TaskValue(func(context.Context) int { return 2 }))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := Submit(p, TaskValue(func(context.Context) int { return 3 }))
		errCh <- err
	}()
	requireBlocked(t, errCh, 50*time.Millisecond, "submit returned while the queue was full")

	p.Terminate()

	err = requireReceive(t, errCh, time.Second, "blocked submit was not woken by Terminate")
	require.ErrorIs(t, err, ErrPoolTerminated)
	require.Equal(t, 1, p.Status().QueueLen)

	select {
	case <-fB.Done():
		t.Fatal("queued task must not run after termination while the worker is busy")
	default:
	}
}

func TestSubmitContext_CancelWhileBlocked(t *testing.T) {
	p := newTestPool(t, 1, 1, 1)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})

	_, err := Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")
	_, err = Submit(p, TaskValue(func(context.Context) int { return 2 }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := SubmitContext(ctx, p, TaskValue(func(context.Context) int { return 3 }))
		errCh <- err
	}()

	otherDone := make(chan error, 1)
	go func() {
		f, err := Submit(p, TaskValue(func(context.Context) int { return 4 }))
		if err == nil {
			_, err = f.Get()
		}
		otherDone <- err
	}()

	requireBlocked(t, errCh, 50*time.Millisecond, "submit returned while the queue was full")
	cancel()

	err = requireReceive(t, errCh, time.Second, "cancelled submit did not return")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, p.Status().QueueLen)

	close(gate)
	err = requireReceive(t, otherDone, time.Second, "remaining submitter did not proceed")
	require.NoError(t, err)
}

func TestSubmitContext_AlreadyCancelledWithFullQueue(t *testing.T) {
	p := newTestPool(t, 1, 1, 1)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	defer close(gate)

	_, err := Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")
	_, err = Submit(p, TaskValue(func(context.Context) int { return 2 }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, err := SubmitContext(ctx, p, TaskValue(func(context.Context) int { return 3 }))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, f)
}

func TestSubmitContext_PassesContextToTask(t *testing.T) {
	type ctxKey struct{}
	p := newTestPool(t, 1, 1, 1)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	f, err := SubmitContext(ctx, p, TaskValue(func(c context.Context) string {
		s, _ := c.Value(ctxKey{}).(string)
		return s
	}))
	require.NoError(t, err)
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, "value", v)
}

func TestTrySubmit_ReportsFullQueue(t *testing.T) {
	p := newTestPool(t, 1, 1, 1)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})

	_, err := Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")

	fB, ok, err := TrySubmit(p, TaskValue(func(context.Context) int { return 2 }))
	require.NoError(t, err)
	require.True(t, ok)

	f, ok, err := TrySubmit(p, TaskValue(func(context.Context) int { return 3 }))
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, f)

	close(gate)
	v, err := fB.Get()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestSubmit_NilTask(t *testing.T) {
	p := newTestPool(t, 0, 1, 1)

	_, err := Submit[int](p, nil)
	require.ErrorIs(t, err, ErrInvalidTask)

	_, ok, err := TrySubmit[int](p, nil)
	require.ErrorIs(t, err, ErrInvalidTask)
	require.False(t, ok)
}

func TestPool_ReusesLowestFreeSlot(t *testing.T) {
	provider := metrics.NewBasicProvider()
	p := newTestPool(t, 0, 3, 10, WithMetrics(provider))

	started := make(chan struct{}, 3)
	gate := make(chan struct{})
	futures := make([]*Future[int], 0, 3)
	for i := 0; i < 3; i++ {
		f, err := Submit(p, blockingTask(started, gate, i))
		require.NoError(t, err)
		futures = append(futures, f)
		requireReceive(t, started, time.Second, "task did not start")
	}
	require.Equal(t, []bool{true, true, true}, p.Status().Slots)

	close(gate)
	for _, f := range futures {
		_, err := f.Get()
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return p.Status().NumWorkers == 0 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []bool{false, false, false}, p.Status().Slots)
	require.Equal(t, int64(3), provider.CounterValue(metrics.WorkersRetired))

	gate2 := make(chan struct{})
	f, err := Submit(p, blockingTask(started, gate2, 9))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")
	require.Equal(t, []bool{true, false, false}, p.Status().Slots)

	close(gate2)
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 9, v)
	require.Equal(t, int64(4), provider.CounterValue(metrics.WorkersSpawned))
}

func TestPool_InvariantsUnderConcurrentSubmitters(t *testing.T) {
	const (
		minWorkers = 2
		maxWorkers = 6
		queueSize  = 4
		submitters = 8
		perSubmit  = 50
	)
	provider := metrics.NewBasicProvider()
	p := newTestPool(t, minWorkers, maxWorkers, queueSize, WithMetrics(provider))

	violations := make(chan string, 16)
	stop := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		for {
			s := p.Status()
			active := 0
			for _, a := range s.Slots {
				if a {
					active++
				}
			}
			var msg string
			switch {
			case s.FreeWorkers < 0 || s.FreeWorkers > s.NumWorkers:
				msg = "free workers out of range"
			case s.NumWorkers > maxWorkers:
				msg = "too many workers"
			case !s.Terminated && s.NumWorkers < minWorkers:
				msg = "too few workers"
			case s.QueueLen > queueSize:
				msg = "queue over capacity"
			case active != s.NumWorkers:
				msg = "slot bitmap disagrees with worker count"
			}
			if msg != "" {
				select {
				case violations <- msg:
				default:
				}
			}
			select {
			case <-stop:
				return
			case <-time.After(100 * time.Microsecond):
			}
		}
	}()

	var sum atomic.Int64
	g, ctx := errgroup.WithContext(context.Background())
	for s := 0; s < submitters; s++ {
		g.Go(func() error {
			futures := make([]*Future[int], 0, perSubmit)
			for i := 0; i < perSubmit; i++ {
				f, err := SubmitContext(ctx, p, Bind(func(n int) int {
					time.Sleep(time.Duration(n%3) * time.Millisecond)
					return n
				}, i))
				if err != nil {
					return err
				}
				futures = append(futures, f)
			}
			for _, f := range futures {
				v, err := f.Get()
				if err != nil {
					return err
				}
				sum.Add(int64(v))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	close(stop)
	<-monitorDone
	close(violations)
	for v := range violations {
		t.Errorf("invariant violated: %s", v)
	}

	require.Equal(t, int64(submitters*perSubmit*(perSubmit-1)/2), sum.Load())
	require.Equal(t, int64(submitters*perSubmit), provider.CounterValue(metrics.TasksSubmitted))
	require.Equal(t, int64(submitters*perSubmit), provider.CounterValue(metrics.TasksCompleted))
	require.Eventually(t, func() bool { return p.Status().NumWorkers == minWorkers }, 2*time.Second, 5*time.Millisecond)
}

func TestClose_ConcurrentCallsShareOneShutdown(t *testing.T) {
	var buf safeBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := New(1, 2, 2, WithLogger(logger))
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	_, err = Submit(p, blockingTask(started, gate, 1))
	require.NoError(t, err)
	requireReceive(t, started, time.Second, "task did not start")

	const callers = 8
	returned := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		go func() {
			p.Close()
			returned <- struct{}{}
		}()
	}

	// Every caller waits for the running task's worker.
	requireBlocked(t, returned, 50*time.Millisecond, "Close returned while a worker was running")

	close(gate)
	for i := 0; i < callers; i++ {
		requireReceive(t, returned, time.Second, "Close did not return")
	}
	p.Close()

	require.Equal(t, 1, strings.Count(buf.String(), "pool terminated"))
	require.Equal(t, 1, strings.Count(buf.String(), "pool closed"))
}

// safeBuffer is a bytes.Buffer safe for concurrent writers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = DefaultFrameInterval

type recorder struct {
	chunks []int
	starts int
	ticks  int
	dones  []Progress
	stops  []Progress
}

func (r *recorder) task(n int) { r.chunks = append(r.chunks, n) }

func (r *recorder) total() int {
	sum := 0
	for _, n := range r.chunks {
		sum += n
	}
	return sum
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnStart: func(Progress) { r.starts++ },
		OnTick:  func(Progress) { r.ticks++ },
		OnDone:  func(p Progress) { r.dones = append(r.dones, p) },
		OnStop:  func(p Progress) { r.stops = append(r.stops, p) },
	}
}

func newTestScheduler(t *testing.T, rec *recorder, opts Options) (*Scheduler, *quartz.Mock) {
	t.Helper()
	mClock := quartz.NewMock(t)
	opts.Clock = mClock
	opts.Callbacks = rec.callbacks()
	return New(opts), mClock
}

func advanceFrames(ctx context.Context, mClock *quartz.Mock, d time.Duration, frames int) {
	for i := 0; i < frames; i++ {
		mClock.Advance(d).MustWait(ctx)
	}
}

func TestRunChunks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 10})

	require.True(t, s.Run(25, rec.task))
	assert.True(t, s.Running())
	assert.Equal(t, 1, rec.starts)
	assert.Empty(t, rec.chunks, "no work before the first frame")

	advanceFrames(ctx, mClock, frame, 2)
	assert.Equal(t, []int{10, 10}, rec.chunks)
	assert.True(t, s.Running())

	advanceFrames(ctx, mClock, frame, 1)
	assert.Equal(t, []int{10, 10, 5}, rec.chunks)
	assert.False(t, s.Running())
	assert.Equal(t, 3, rec.ticks)
	require.Len(t, rec.dones, 1)
	assert.Equal(t, Progress{Total: 25, Completed: 25, Chunks: 3}, rec.dones[0])
	assert.Empty(t, rec.stops)

	// Further frames do nothing
	advanceFrames(ctx, mClock, frame, 1)
	assert.Equal(t, 25, rec.total())
}

func TestRunRejectsWhileActive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 100})

	require.True(t, s.Run(100, rec.task))
	assert.False(t, s.Run(50, rec.task))
	assert.False(t, s.StartAuto(10, rec.task))

	advanceFrames(ctx, mClock, frame, 1)
	assert.Equal(t, 100, rec.total(), "rejected runs must not add trials")
	assert.Equal(t, 1, rec.starts)
	assert.Len(t, rec.dones, 1)

	// Idle again, so a new run is accepted
	require.True(t, s.Run(50, rec.task))
	advanceFrames(ctx, mClock, frame, 1)
	assert.Equal(t, 150, rec.total())
}

func TestRunRejectsInvalidInput(t *testing.T) {
	rec := &recorder{}
	s, _ := newTestScheduler(t, rec, Options{})

	assert.False(t, s.Run(0, rec.task))
	assert.False(t, s.Run(-10, rec.task))
	assert.False(t, s.Run(10, nil))
	assert.False(t, s.StartAuto(10, nil))
	assert.False(t, s.Running())
	assert.Zero(t, rec.starts)
}

func TestStopMidRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 10})

	require.True(t, s.Run(100, rec.task))
	advanceFrames(ctx, mClock, frame, 2)
	require.Equal(t, 20, rec.total())

	s.Stop()
	assert.False(t, s.Running())
	require.Len(t, rec.stops, 1)
	assert.Equal(t, 20, rec.stops[0].Completed)

	advanceFrames(ctx, mClock, frame, 3)
	assert.Equal(t, 20, rec.total(), "no chunks after stop")

	s.Stop()
	assert.Len(t, rec.stops, 1, "stop callback fires once")
	assert.Empty(t, rec.dones)
}

func TestStopFromWithinTask(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 10})

	calls := 0
	task := func(n int) {
		calls++
		rec.task(n)
		if calls == 2 {
			s.Stop()
			s.Stop()
		}
	}

	require.True(t, s.Run(100, task))
	advanceFrames(ctx, mClock, frame, 2)

	assert.Equal(t, 20, rec.total(), "the in-flight chunk completes")
	assert.False(t, s.Running())
	assert.Len(t, rec.stops, 1)
	assert.Empty(t, rec.dones)
	assert.Equal(t, 1, rec.ticks, "cancelled chunk does not tick")
	assert.Equal(t, 10, rec.stops[0].Completed, "OnStop excludes the executing chunk")
	assert.Equal(t, Progress{Total: 100, Completed: 20, Chunks: 2}, s.Last())

	advanceFrames(ctx, mClock, frame, 2)
	assert.Equal(t, 20, rec.total())
}

func TestStopWhenIdle(t *testing.T) {
	rec := &recorder{}
	s, _ := newTestScheduler(t, rec, Options{})
	s.Stop()
	assert.Empty(t, rec.stops)
}

func TestStopBeforeFirstFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{})

	require.True(t, s.Run(10, rec.task))
	s.Stop()
	advanceFrames(ctx, mClock, frame, 1)

	assert.Empty(t, rec.chunks)
	assert.Len(t, rec.stops, 1)
	assert.Empty(t, rec.dones)
}

func TestStartAuto(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{AutoBatch: 3})

	require.True(t, s.StartAuto(10, rec.task))
	d, ok := mClock.Peek()
	require.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, d)

	advanceFrames(ctx, mClock, 100*time.Millisecond, 4)
	assert.Equal(t, []int{3, 3, 3, 3}, rec.chunks)
	assert.True(t, s.Running(), "auto runs until stopped")

	s.Stop()
	assert.False(t, s.Running())
	require.Len(t, rec.stops, 1)
	assert.True(t, rec.stops[0].Auto)
	assert.Equal(t, 12, rec.stops[0].Completed)
	assert.Empty(t, rec.dones)
}

func TestStartAutoSpeedClamp(t *testing.T) {
	tests := []struct {
		speed    int
		interval time.Duration
	}{
		{0, time.Second / 60},
		{-4, time.Second / 60},
		{120, time.Second / 60},
		{1, time.Second},
		{30, time.Second / 30},
	}
	for _, tt := range tests {
		rec := &recorder{}
		s, mClock := newTestScheduler(t, rec, Options{})
		require.True(t, s.StartAuto(tt.speed, rec.task))
		d, ok := mClock.Peek()
		require.True(t, ok)
		assert.Equal(t, tt.interval, d, "speed %d", tt.speed)
		s.Stop()
	}

	assert.Equal(t, DefaultSpeed, ClampSpeed(0))
	assert.Equal(t, MinSpeed, ClampSpeed(1))
	assert.Equal(t, MaxSpeed, ClampSpeed(1000))
}

func TestWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 5})

	require.NoError(t, s.Wait(ctx), "idle wait returns immediately")

	require.True(t, s.Run(10, rec.task))
	waited := make(chan error, 1)
	go func() { waited <- s.Wait(ctx) }()

	advanceFrames(ctx, mClock, frame, 2)
	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("wait did not return after the run finished")
	}
	assert.Equal(t, 10, rec.total())
}

func TestWaitContextCancelled(t *testing.T) {
	rec := &recorder{}
	s, _ := newTestScheduler(t, rec, Options{})

	require.True(t, s.StartAuto(1, rec.task))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.Canceled)
	s.Stop()
	assert.NoError(t, s.Wait(context.Background()))
}

func TestDefaults(t *testing.T) {
	s := New(Options{})
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultFrameInterval, s.interval)
	assert.Equal(t, 1, s.autoBatch)
}

func TestStopWhileChunkExecuting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{})

	entered := make(chan struct{})
	unblock := make(chan struct{})
	task := func(n int) {
		close(entered)
		<-unblock
		rec.task(n)
	}

	require.True(t, s.StartAuto(MaxSpeed, task))
	frameDone := make(chan struct{})
	go func() {
		defer close(frameDone)
		mClock.Advance(time.Second / MaxSpeed).MustWait(ctx)
	}()
	<-entered

	s.Stop()
	require.Len(t, rec.stops, 1)
	assert.Equal(t, 0, rec.stops[0].Completed)
	assert.True(t, s.Running(), "the executing chunk still holds the scheduler")
	assert.False(t, s.StartAuto(MaxSpeed, rec.task))

	waited := make(chan error, 1)
	go func() { waited <- s.Wait(ctx) }()
	close(unblock)
	<-frameDone

	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("wait did not return after the chunk landed")
	}
	assert.False(t, s.Running())
	assert.Equal(t, Progress{Auto: true, Completed: 1, Chunks: 1}, s.Last())
	assert.True(t, s.StartAuto(MaxSpeed, rec.task), "restart accepted once the chunk landed")
	s.Stop()
}

func TestClaim(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &recorder{}
	s, mClock := newTestScheduler(t, rec, Options{ChunkSize: 10})

	release, ok := s.Claim()
	require.True(t, ok)
	assert.True(t, s.Running())

	assert.False(t, s.Run(10, rec.task))
	assert.False(t, s.StartAuto(1, rec.task))
	_, ok = s.Claim()
	assert.False(t, ok)

	s.Stop()
	assert.Empty(t, rec.stops, "stop does not interrupt a claim")
	assert.True(t, s.Running())

	blocked, cancelBlocked := context.WithCancel(ctx)
	cancelBlocked()
	assert.ErrorIs(t, s.Wait(blocked), context.Canceled)

	release()
	release()
	assert.False(t, s.Running())
	assert.NoError(t, s.Wait(ctx))
	assert.Equal(t, Progress{}, s.Last(), "claims leave no progress behind")
	assert.Zero(t, rec.starts)

	require.True(t, s.Run(10, rec.task))
	advanceFrames(ctx, mClock, frame, 1)
	assert.Equal(t, 10, rec.total())

	_, ok = s.Claim()
	assert.False(t, ok, "claim refused while a run is active")
}

package countdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sib-utrecht/portal/distribution"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	start = time.Unix(1_700_000_000, 0)
	end1  = time.Unix(1_700_000_010, 0)
	end2  = time.Unix(1_700_000_040, 0)
)

type reply struct {
	res distribution.Result
	err error
}

type call struct {
	ids   []string
	reply chan reply
}

func (c call) ok(endTime time.Time, codes ...string) {
	c.reply <- reply{res: distribution.Result{Secrets: codes, EndTime: endTime}}
}

func (c call) fail(err error) {
	c.reply <- reply{err: err}
}

type fakeFetcher struct {
	calls chan call
}

func (f *fakeFetcher) GenerateCodes(ctx context.Context, ids []string) (distribution.Result, error) {
	c := call{ids: ids, reply: make(chan reply, 1)}
	select {
	case f.calls <- c:
	case <-ctx.Done():
		return distribution.Result{}, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return r.res, r.err
	case <-ctx.Done():
		return distribution.Result{}, ctx.Err()
	}
}

func (f *fakeFetcher) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(time.Second):
		require.FailNow(t, "expected a fetch")
		return call{}
	}
}

func setup(t *testing.T) (*Controller, *fakeFetcher, *clockwork.FakeClock) {
	fetcher := &fakeFetcher{calls: make(chan call, 10)}
	clock := clockwork.NewFakeClockAt(start)
	c := New(fetcher, []string{"finance", "events"}, WithClock(clock), WithLogger(zerolog.Nop()))
	t.Cleanup(c.Stop)
	return c, fetcher, clock
}

// loaded starts the controller and answers the initial fetch
func loaded(t *testing.T) (*Controller, *fakeFetcher, *clockwork.FakeClock) {
	c, fetcher, clock := setup(t)
	c.Start(context.Background())
	fetcher.next(t).ok(end1, "111111", "222222")
	require.Eventually(t, func() bool { return !c.State().Loading }, time.Second, time.Millisecond)
	return c, fetcher, clock
}

func Test_RingAt(t *testing.T) {
	ring := RingAt(start, start.Add(12_000*time.Millisecond))
	assert.Equal(t, 12, ring.SecondsLeft)
	assert.InDelta(t, 0.4, ring.Progress, 0.0001)
	assert.InDelta(t, Circumference*0.6, ring.DashOffset, 0.0001)

	ring = RingAt(start, start.Add(30*time.Second))
	assert.Equal(t, 30, ring.SecondsLeft)
	assert.Equal(t, 1.0, ring.Progress)
	assert.Equal(t, 0.0, ring.DashOffset)

	// close enough to full to be drawn full
	ring = RingAt(start, start.Add(29_990*time.Millisecond))
	assert.Equal(t, 0.0, ring.DashOffset)

	ring = RingAt(start, start.Add(time.Millisecond))
	assert.Equal(t, 1, ring.SecondsLeft)

	ring = RingAt(start, start.Add(-time.Second))
	assert.Equal(t, time.Duration(0), ring.Remaining)
	assert.Equal(t, 0, ring.SecondsLeft)
	assert.Equal(t, 0.0, ring.Progress)
	assert.InDelta(t, Circumference, ring.DashOffset, 0.0001)
}

func Test_Circumference(t *testing.T) {
	assert.InDelta(t, 138.23, Circumference, 0.01)
}

func Test_Start_Loads(t *testing.T) {
	c, fetcher, _ := setup(t)
	assert.True(t, c.State().Loading)

	c.Start(context.Background())
	call := fetcher.next(t)
	assert.Equal(t, []string{"finance", "events"}, call.ids)
	assert.Equal(t, 1, c.State().Fetching)

	call.ok(end1, "111111", "222222")
	require.Eventually(t, func() bool { return !c.State().Loading }, time.Second, time.Millisecond)

	state := c.State()
	assert.Equal(t, []string{"111111", "222222"}, state.Codes)
	assert.Equal(t, end1, state.EndTime)
	assert.Equal(t, 10, state.SecondsLeft)
	assert.Equal(t, 0, state.Fetching)
	assert.False(t, state.Resetting)
	assert.NoError(t, state.Err)
}

func Test_Tick_CountsDown(t *testing.T) {
	c, _, clock := loaded(t)

	clock.Advance(8 * time.Second)
	c.tick()
	state := c.State()
	assert.Equal(t, 2, state.SecondsLeft)
	assert.Equal(t, 2*time.Second, state.Remaining)
	assert.InDelta(t, 2.0/30, state.Progress, 0.0001)
	assert.Equal(t, 0, state.Fetching)
}

func Test_Rollover_FetchesOnce(t *testing.T) {
	c, fetcher, clock := loaded(t)

	clock.Advance(10 * time.Second)
	for i := 0; i < 5; i++ {
		c.tick()
	}

	state := c.State()
	assert.Equal(t, 1, state.Fetching)
	assert.True(t, state.Resetting)
	assert.Equal(t, 1, state.ResetKey)
	// previous codes stay up while the new ones load
	assert.Equal(t, []string{"111111", "222222"}, state.Codes)
	assert.Equal(t, 0, state.SecondsLeft)

	call := fetcher.next(t)

	// still only one, however many ticks we get while waiting
	clock.Advance(100 * time.Millisecond)
	c.tick()
	assert.Equal(t, 1, c.State().Fetching)
	assert.Empty(t, fetcher.calls)

	call.ok(end2, "333333", "444444")
	require.Eventually(t, func() bool { return c.State().Fetching == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"333333", "444444"}, c.State().Codes)
	assert.Equal(t, end2, c.State().EndTime)
}

func Test_Rollover_ResetLasts350ms(t *testing.T) {
	c, fetcher, clock := loaded(t)

	clock.Advance(10 * time.Second)
	c.tick()
	assert.True(t, c.State().Resetting)
	fetcher.next(t).ok(end2, "333333", "444444")

	clock.Advance(ResetDuration - time.Millisecond)
	assert.True(t, c.State().Resetting)

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return !c.State().Resetting }, time.Second, time.Millisecond)
	assert.Equal(t, 1, c.State().ResetKey)
}

func Test_FetchFailure_KeepsCodes(t *testing.T) {
	c, fetcher, clock := loaded(t)

	clock.Advance(10 * time.Second)
	c.tick()
	failure := errors.New("network down")
	fetcher.next(t).fail(failure)
	require.Eventually(t, func() bool { return c.State().Err != nil }, time.Second, time.Millisecond)

	state := c.State()
	assert.Equal(t, failure, state.Err)
	assert.Equal(t, []string{"111111", "222222"}, state.Codes)
	assert.False(t, state.Loading)

	// no retry until the next boundary
	clock.Advance(29 * time.Second)
	c.tick()
	assert.Equal(t, 0, c.State().Fetching)
	assert.Empty(t, fetcher.calls)

	clock.Advance(time.Second)
	c.tick()
	assert.Equal(t, 1, c.State().Fetching)

	fetcher.next(t).ok(end2.Add(30*time.Second), "555555", "666666")
	require.Eventually(t, func() bool { return c.State().Err == nil }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"555555", "666666"}, c.State().Codes)
}

func Test_StaleResponse_Discarded(t *testing.T) {
	c, fetcher, _ := setup(t)
	c.Start(context.Background())
	first := fetcher.next(t)

	c.Refresh()
	second := fetcher.next(t)
	assert.Equal(t, 2, c.State().Fetching)

	second.ok(end1, "new", "new")
	require.Eventually(t, func() bool { return c.State().Fetching == 1 }, time.Second, time.Millisecond)

	first.ok(end1, "old", "old")
	require.Eventually(t, func() bool { return c.State().Fetching == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"new", "new"}, c.State().Codes)
}

func Test_FailedRefresh_KeepsPendingRolloverCodes(t *testing.T) {
	c, fetcher, clock := loaded(t)

	clock.Advance(10 * time.Second)
	c.tick()
	rollover := fetcher.next(t)

	c.Refresh()
	fetcher.next(t).fail(errors.New("offline"))
	require.Eventually(t, func() bool { return c.State().Fetching == 1 }, time.Second, time.Millisecond)
	assert.Error(t, c.State().Err)

	rollover.ok(end2, "333333", "444444")
	require.Eventually(t, func() bool { return c.State().Fetching == 0 }, time.Second, time.Millisecond)

	state := c.State()
	assert.Equal(t, []string{"333333", "444444"}, state.Codes)
	assert.Equal(t, end2, state.EndTime)
	assert.NoError(t, state.Err)
}

func Test_FailedFetch_OlderThanApplied_Ignored(t *testing.T) {
	c, fetcher, _ := setup(t)
	c.Start(context.Background())
	first := fetcher.next(t)

	c.Refresh()
	fetcher.next(t).ok(end1, "new", "new")
	require.Eventually(t, func() bool { return c.State().Fetching == 1 }, time.Second, time.Millisecond)

	first.fail(errors.New("timeout"))
	require.Eventually(t, func() bool { return c.State().Fetching == 0 }, time.Second, time.Millisecond)
	assert.NoError(t, c.State().Err)
	assert.Equal(t, []string{"new", "new"}, c.State().Codes)
}

func Test_PastEndTime_WaitsForNextBoundary(t *testing.T) {
	c, fetcher, clock := loaded(t)

	clock.Advance(10 * time.Second)
	c.tick()
	// a server running behind answers with the boundary we just crossed
	fetcher.next(t).ok(end1, "333333", "444444")
	require.Eventually(t, func() bool { return c.State().Fetching == 0 }, time.Second, time.Millisecond)

	for i := 0; i < 3; i++ {
		c.tick()
	}
	clock.Advance(29 * time.Second)
	c.tick()

	state := c.State()
	assert.Equal(t, 0, state.Fetching)
	assert.Equal(t, 1, state.ResetKey)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, []string{"333333", "444444"}, state.Codes)

	clock.Advance(time.Second)
	c.tick()
	assert.Equal(t, 1, c.State().Fetching)
	assert.Equal(t, 2, c.State().ResetKey)
}

func Test_OnChange(t *testing.T) {
	fetcher := &fakeFetcher{calls: make(chan call, 10)}
	clock := clockwork.NewFakeClockAt(start)
	states := make(chan State, 100)
	c := New(fetcher, []string{"finance"}, WithClock(clock), WithLogger(zerolog.Nop()), OnChange(func(s State) {
		states <- s
	}))
	defer c.Stop()

	c.Start(context.Background())
	fetcher.next(t).ok(end1, "111111")

	select {
	case s := <-states:
		assert.Equal(t, []string{"111111"}, s.Codes)
	case <-time.After(time.Second):
		require.FailNow(t, "no state change")
	}
}

func Test_Ticker_DrivesTicks(t *testing.T) {
	c, _, clock := loaded(t)
	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool {
		clock.Advance(TickInterval)
		return c.State().SecondsLeft < 10
	}, time.Second, 5*time.Millisecond)
}

func Test_Stop(t *testing.T) {
	c, fetcher, _ := setup(t)
	c.Start(context.Background())
	// leave the fetch hanging; Stop has to cancel it
	fetcher.next(t)
	c.Stop()

	c.Stop()
	c.Refresh()
	c.tick()
	assert.Empty(t, fetcher.calls)
	assert.True(t, c.State().Loading)
}

package clipboard

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type writer struct {
	written []string
	err     error
	panics  bool
}

func (w *writer) WriteAll(text string) error {
	if w.panics {
		panic("clipboard exploded")
	}
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, text)
	return nil
}

func setup(primary Writer, fallback Writer) (*Feedback, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	f := New(WithPrimary(primary), WithFallback(fallback), WithClock(clock), WithLogger(zerolog.Nop()))
	return f, clock
}

func Test_Copy_Primary(t *testing.T) {
	primary, fallback := &writer{}, &writer{}
	f, _ := setup(primary, fallback)
	defer f.Close()

	assert.True(t, f.Copy("482913", 1, 10, 20))
	assert.Equal(t, []string{"482913"}, primary.written)
	assert.Empty(t, fallback.written)

	toast := f.Toast()
	require.NotNil(t, toast)
	assert.Equal(t, "Copied", toast.Text)
	assert.True(t, toast.Ok)
	assert.Equal(t, 1, toast.Index)
	assert.Equal(t, 10, toast.X)
	assert.Equal(t, 20, toast.Y)
}

func Test_Copy_FallbackOnError(t *testing.T) {
	primary, fallback := &writer{err: errors.New("no xclip")}, &writer{}
	f, _ := setup(primary, fallback)
	defer f.Close()

	assert.True(t, f.Copy("482913", 0, 0, 0))
	assert.Equal(t, []string{"482913"}, fallback.written)
	assert.Equal(t, "Copied", f.Toast().Text)
}

func Test_Copy_FallbackOnPanic(t *testing.T) {
	primary, fallback := &writer{panics: true}, &writer{}
	f, _ := setup(primary, fallback)
	defer f.Close()

	assert.True(t, f.Copy("482913", 0, 0, 0))
	assert.Equal(t, []string{"482913"}, fallback.written)
}

func Test_Copy_Fails(t *testing.T) {
	f, _ := setup(&writer{panics: true}, &writer{err: errors.New("nope")})
	defer f.Close()

	assert.False(t, f.Copy("482913", 0, 0, 0))
	toast := f.Toast()
	require.NotNil(t, toast)
	assert.Equal(t, "Unable to copy", toast.Text)
	assert.False(t, toast.Ok)
}

func Test_Copy_NilWriters(t *testing.T) {
	f, _ := setup(nil, nil)
	defer f.Close()
	assert.False(t, f.Copy("482913", 0, 0, 0))
}

func Test_Toast_Dismissed(t *testing.T) {
	dismissed := make(chan struct{}, 1)
	clock := clockwork.NewFakeClock()
	f := New(WithPrimary(&writer{}), WithClock(clock), WithLogger(zerolog.Nop()), OnToast(func(t *Toast) {
		if t == nil {
			dismissed <- struct{}{}
		}
	}))
	defer f.Close()

	f.Copy("482913", 0, 0, 0)
	clock.Advance(ToastDuration - time.Millisecond)
	assert.NotNil(t, f.Toast())

	clock.Advance(time.Millisecond)
	select {
	case <-dismissed:
	case <-time.After(time.Second):
		require.FailNow(t, "toast not dismissed")
	}
	assert.Nil(t, f.Toast())
}

func Test_Toast_Replaced(t *testing.T) {
	f, clock := setup(&writer{}, nil)
	defer f.Close()

	f.Copy("111111", 0, 0, 0)
	first := f.Toast().Nonce

	clock.Advance(time.Second)
	f.Copy("222222", 1, 5, 5)
	second := f.Toast()
	assert.NotEqual(t, first, second.Nonce)
	assert.Equal(t, 1, second.Index)

	// the first toast's timer would have fired here
	clock.Advance(time.Second)
	assert.Equal(t, second.Nonce, f.Toast().Nonce)

	clock.Advance(800 * time.Millisecond)
	require.Eventually(t, func() bool { return f.Toast() == nil }, time.Second, time.Millisecond)
}

func Test_OSC52(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OSC52{Out: &buf}.WriteAll("482913"))
	assert.Equal(t, "\x1b]52;c;NDgyOTEz\a", buf.String())

	assert.ErrorIs(t, OSC52{}.WriteAll("x"), ErrUnsupported)
}

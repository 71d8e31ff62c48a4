// Package clipboard copies codes for the terminal client and reports
// the outcome as a short-lived toast.
package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	sysclip "github.com/atotto/clipboard"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const ToastDuration = 1800 * time.Millisecond

const (
	TextCopied = "Copied"
	TextFailed = "Unable to copy"
)

var ErrUnsupported = errors.New("clipboard: no system clipboard available")

type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard (xclip/xsel/wl-copy, pbcopy or the
// win32 API).
type System struct{}

func (System) WriteAll(text string) error {
	if sysclip.Unsupported {
		return ErrUnsupported
	}
	return sysclip.WriteAll(text)
}

// OSC52 asks the terminal to set its selection. It works over ssh, where
// the system clipboard is out of reach, provided the terminal allows it.
type OSC52 struct {
	Out io.Writer
}

func (o OSC52) WriteAll(text string) error {
	if o.Out == nil {
		return ErrUnsupported
	}
	_, err := fmt.Fprintf(o.Out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}

type Toast struct {
	Text string
	Ok   bool
	// the code that was copied, and where the copy was triggered
	Index int
	X     int
	Y     int
	// distinguishes consecutive toasts with the same text
	Nonce uint64
}

type Option func(*Feedback)

func WithPrimary(w Writer) Option {
	return func(f *Feedback) { f.primary = w }
}

func WithFallback(w Writer) Option {
	return func(f *Feedback) { f.fallback = w }
}

func WithClock(clock clockwork.Clock) Option {
	return func(f *Feedback) { f.clock = clock }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Feedback) { f.logger = logger }
}

// OnToast is called when a toast is shown and with nil once it is
// dismissed.
func OnToast(fn func(*Toast)) Option {
	return func(f *Feedback) { f.onToast = fn }
}

type Feedback struct {
	primary  Writer
	fallback Writer
	clock    clockwork.Clock
	logger   zerolog.Logger
	onToast  func(*Toast)

	mu    sync.Mutex
	toast *Toast
	timer clockwork.Timer
	nonce uint64
}

func New(opts ...Option) *Feedback {
	f := &Feedback{
		primary:  System{},
		fallback: OSC52{Out: os.Stdout},
		clock:    clockwork.NewRealClock(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Copy writes text with the primary writer, falling back to the
// secondary one, and shows the outcome. It never panics.
func (f *Feedback) Copy(text string, index int, x int, y int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().Str("c", "clipboard_copy_panic").Interface("panic", r).Msg("")
			ok = false
		}
	}()

	ok = f.write(text)
	f.show(&Toast{Ok: ok, Index: index, X: x, Y: y})
	return ok
}

func (f *Feedback) write(text string) bool {
	err := safeWrite(f.primary, text)
	if err == nil {
		return true
	}
	f.logger.Debug().Str("c", "clipboard_primary").Err(err).Msg("")

	if err = safeWrite(f.fallback, text); err == nil {
		return true
	}
	f.logger.Warn().Str("c", "clipboard_fallback").Err(err).Msg("")
	return false
}

func safeWrite(w Writer, text string) (err error) {
	if w == nil {
		return ErrUnsupported
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard writer panic - %v", r)
		}
	}()
	return w.WriteAll(text)
}

func (f *Feedback) show(toast *Toast) {
	toast.Text = TextFailed
	if toast.Ok {
		toast.Text = TextCopied
	}

	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.nonce++
	toast.Nonce = f.nonce
	f.toast = toast

	nonce := f.nonce
	f.timer = f.clock.AfterFunc(ToastDuration, func() {
		f.dismiss(nonce)
	})
	shown := *toast
	f.mu.Unlock()

	if f.onToast != nil {
		f.onToast(&shown)
	}
}

func (f *Feedback) dismiss(nonce uint64) {
	f.mu.Lock()
	if f.toast == nil || f.toast.Nonce != nonce {
		f.mu.Unlock()
		return
	}
	f.toast = nil
	f.timer = nil
	f.mu.Unlock()

	if f.onToast != nil {
		f.onToast(nil)
	}
}

// Toast returns the toast currently shown, or nil.
func (f *Feedback) Toast() *Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toast == nil {
		return nil
	}
	t := *f.toast
	return &t
}

// Close dismisses any pending toast without notifying.
func (f *Feedback) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.toast = nil
}

package portal

/*
The environment of a single authenticated request. Always tied to
an identity. Loaded via the envHandler middleware.
*/

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// If we let this start at 0, then restarts are likely to produce duplicates.
// While we make no guarantees about the uniqueness of the requestId, there's
// no reason we can't help things out a little.
var requestId = uint32(time.Now().Unix())

type Env struct {
	// Every time we get an env, we assign it a RequestId. This is an
	// incrementing integer combined with the instance id. It can wrap and
	// we can have duplicates but generally, over a reasonable window, it
	// should be unique.
	requestId string

	Identity *Identity

	// Set by the loader when the identity is in the configured admin group
	Admin bool

	// Anything logged with this logger will automatically have the
	// rid (request id) and sub (caller's stable id) fields
	Logger zerolog.Logger
}

func NewEnv(identity *Identity) *Env {
	requestId := NextRequestId()
	logger := log.With().
		Str("rid", requestId).
		Str("sub", identity.StableId()).
		Logger()

	return &Env{
		Identity:  identity,
		Logger:    logger,
		requestId: requestId,
	}
}

func NextRequestId() string {
	return encodeRequestId(atomic.AddUint32(&requestId, 1), Config.InstanceId)
}

// 2 hex characters of instance id followed by the low 24 bits of the
// counter: always 8 characters.
func encodeRequestId(id uint32, instanceId uint8) string {
	return fmt.Sprintf("%02x%06x", instanceId, id&0xffffff)
}

func (e *Env) RequestId() string {
	return e.requestId
}

func (e *Env) Info(ctx string) *zerolog.Event {
	return e.Logger.Info().Str("c", ctx)
}

func (e *Env) Warn(ctx string) *zerolog.Event {
	return e.Logger.Warn().Str("c", ctx)
}

func (e *Env) Error(ctx string) *zerolog.Event {
	return e.Logger.Error().Str("c", ctx)
}

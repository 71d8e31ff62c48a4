package http

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/http/response"
)

var (
	resUnauthorized = response.StaticError(401, codes.RES_UNAUTHORIZED, "unauthorized: must be logged in")
)

// A route's handler. env carries the caller's identity and whether the
// gate considers them an admin.
type Next func(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error)

// Turns the request's credentials into an identity. Any returned error
// wrapping portal.ErrUnauthorized results in a 401.
type IdentityLoader interface {
	RequireLogin(authorization string) (*portal.Identity, error)
	IsAdmin(identity *portal.Identity) bool
}

// envHandler resolves the Authorization header to an identity before
// next runs; a caller without one gets a 401 and next is skipped. An
// error from next becomes a 500 carrying an Error-Id. Every request ends
// with one "req" log line keyed by routeName rather than the raw path.
func envHandler(routeName string, loader IdentityLoader, next Next) func(ctx *fasthttp.RequestCtx) {
	return func(conn *fasthttp.RequestCtx) {
		start := time.Now()

		header := &conn.Response.Header
		header.SetContentTypeBytes([]byte("application/json"))

		identity, err := loader.RequireLogin(string(conn.Request.Header.Peek("Authorization")))
		if err != nil {
			if !errors.Is(err, portal.ErrUnauthorized) {
				// the loader is supposed to wrap every failure
				log.Error().Str("c", "env_handler_identity").Err(err).Msg("")
			}
			resUnauthorized.Write(conn)
			resUnauthorized.EnhanceLog(log.Info().Str("c", "req")).
				Str("route", routeName).
				Int64("ms", time.Since(start).Milliseconds()).
				Msg("")
			return
		}

		env := portal.NewEnv(identity)
		env.Admin = loader.IsAdmin(identity)
		header.Set("RequestId", env.RequestId())

		r, err := next(conn, env)

		var logger *zerolog.Event
		if err == nil {
			logger = env.Info("req")
		} else {
			// the error goes to its own line, the req line only gets the eid
			errorId := uuid.NewString()
			header.Set("Error-Id", errorId)

			env.Error("env_handler_err").Str("eid", errorId).Err(err).Msg("")
			logger = env.Info("req").Str("eid", errorId)
			r = response.ServerError(errorId)
		}

		r.Write(conn)

		r.EnhanceLog(logger).
			Str("route", routeName).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("")
	}
}

// For the few routes that don't need a caller (ping, info).
func noEnvHandler(routeName string, next func(conn *fasthttp.RequestCtx) (response.Response, error)) func(ctx *fasthttp.RequestCtx) {
	return func(conn *fasthttp.RequestCtx) {
		start := time.Now()
		conn.Response.Header.SetContentTypeBytes([]byte("application/json"))

		r, err := next(conn)
		logger := log.Info().Str("c", "req")
		if err != nil {
			errorId := uuid.NewString()
			conn.Response.Header.Set("Error-Id", errorId)
			log.Error().Str("c", "handler_err").Str("eid", errorId).Err(err).Msg("")
			logger = logger.Str("eid", errorId)
			r = response.ServerError(errorId)
		}

		r.Write(conn)
		r.EnhanceLog(logger).
			Str("route", routeName).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("")
	}
}

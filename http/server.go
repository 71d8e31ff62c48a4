package http

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/auth"
	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/distribution"
	"github.com/sib-utrecht/portal/http/committees"
	"github.com/sib-utrecht/portal/http/misc"
	"github.com/sib-utrecht/portal/http/response"
	"github.com/sib-utrecht/portal/http/totps"
	"github.com/sib-utrecht/portal/storage"
)

var (
	resNotFoundPath = response.StaticNotFound(codes.RES_UNKNOWN_ROUTE)
)

func Listen() {
	listen := portal.Config.HTTP.Listen
	if listen == "" {
		listen = "127.0.0.1:5200"
	}

	gate, err := auth.New(portal.Config.Auth)
	if err != nil {
		log.Fatal().Str("c", "http_auth_config").Err(err).Msg("")
	}

	log.Info().Str("c", "server_listening").Str("address", listen).Msg("")

	fast := fasthttp.Server{
		Handler:                      Handler(gate, distribution.New(storage.DB, nil)),
		NoDefaultContentType:         true,
		NoDefaultServerHeader:        true,
		SecureErrorLogMessage:        true,
		DisablePreParseMultipartForm: true,
	}
	err = fast.ListenAndServe(listen)
	log.Fatal().Str("c", "http_server_error").Err(err).Str("address", listen).Msg("")
}

func Handler(loader IdentityLoader, service *distribution.Service) func(ctx *fasthttp.RequestCtx) {
	r := router.New()
	// misc routes
	r.GET("/v1/ping", noEnvHandler("ping", misc.Ping))
	r.GET("/v1/info", noEnvHandler("info", misc.Info))
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	r.POST("/v1/codes", envHandler("codes_generate", loader, totps.Generate(service)))

	r.GET("/v1/committees", envHandler("committees_list", loader, committees.List))
	r.POST("/v1/committees", envHandler("committees_create", loader, committees.Create))

	// catch all
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentTypeBytes([]byte("application/json"))
		resNotFoundPath.Write(ctx)
	}

	return r.Handler
}

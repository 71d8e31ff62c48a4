package totps

import (
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/distribution"
	"github.com/sib-utrecht/portal/http/input"
	"github.com/sib-utrecht/portal/http/response"
)

const maxIds = 100

var (
	idsRule = input.ArrayRule{
		Required: true,
		Max:      maxIds,
		Item:     input.StringRule{Required: true, Min: 1, Max: 100},
	}

	resUnauthorized = response.StaticError(401, codes.RES_UNAUTHORIZED, "unauthorized: must be logged in")
)

type generateResponse struct {
	Secrets []string `json:"secrets"`
	// unix ms of the step boundary the codes expire at
	EndTime int64 `json:"endTime"`
}

// Generate answers POST /v1/codes: {"ids": [...]} -> the current code of
// every listed committee plus the moment they all expire.
func Generate(service *distribution.Service) func(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error) {
	return func(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error) {
		body, ok := input.Parse(conn.PostBody())
		if !ok {
			return response.InvalidJSON, nil
		}

		validator := &input.Validator{}
		ids := validator.StringArray(body, "ids", idsRule)
		if !validator.IsValid() {
			return validator.Response(), nil
		}

		result, err := service.Generate(conn, env.Identity, ids)
		if err != nil {
			return errorResponse(env, err)
		}

		return response.Ok(generateResponse{
			Secrets: result.Secrets,
			EndTime: result.EndTime.UnixMilli(),
		}), nil
	}
}

func errorResponse(env *portal.Env, err error) (response.Response, error) {
	var notFound *distribution.NotFoundError
	var forbidden *distribution.ForbiddenError

	switch {
	case errors.Is(err, portal.ErrUnauthorized):
		return resUnauthorized, nil
	case errors.As(err, &notFound):
		return response.EntityError(404, codes.RES_COMMITTEE_NOT_FOUND, notFound.Error(), notFound.Id, ""), nil
	case errors.As(err, &forbidden):
		env.Warn("totps_generate_forbidden").Str("committee", forbidden.Id).Msg("")
		return response.EntityError(403, codes.RES_FORBIDDEN, forbidden.Error(), forbidden.Id, forbidden.Name), nil
	default:
		return nil, err
	}
}

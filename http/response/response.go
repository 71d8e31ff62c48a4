package response

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal/codes"
)

var (
	InvalidJSON        = StaticError(400, codes.RES_INVALID_JSON, "body should be a valid json object")
	GenericServerError = StaticError(500, codes.RES_SERVER_ERROR, "internal server error")
)

type Response interface {
	Write(conn *fasthttp.RequestCtx)

	// adds the status, response size and (for errors) the
	// error code to the request log
	EnhanceLog(event *zerolog.Event) *zerolog.Event
}

type Normal struct {
	status int
	code   int
	body   []byte
}

func (r Normal) Write(conn *fasthttp.RequestCtx) {
	conn.SetStatusCode(r.status)
	conn.SetBody(r.body)
}

func (r Normal) EnhanceLog(event *zerolog.Event) *zerolog.Event {
	event = event.Int("status", r.status).Int("res", len(r.body))
	if r.code != 0 {
		event = event.Int("code", r.code)
	}
	return event
}

func (r Normal) Status() int {
	return r.status
}

func (r Normal) Body() []byte {
	return r.body
}

func Ok(data any) Response {
	if data == nil {
		return OkBytes([]byte("{}"))
	}
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Str("c", "response_ok_marshal").Err(err).Msg("")
		return GenericServerError
	}
	return OkBytes(body)
}

func OkBytes(body []byte) Response {
	return Normal{status: 200, body: body}
}

type errorBody struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	ErrorId string `json:"error_id,omitempty"`

	// optional, details about the entity which caused the error
	Id   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// StaticError is meant to be created once (package level var) and
// reused for every response.
func StaticError(status int, code int, message string) Response {
	return errorResponse(status, errorBody{Code: code, Error: message})
}

func StaticNotFound(code int) Response {
	return StaticError(404, code, "not found")
}

// EntityError is an error about a specific entity, e.g. the committee
// which the caller isn't a member of.
func EntityError(status int, code int, message string, id string, name string) Response {
	return errorResponse(status, errorBody{Code: code, Error: message, Id: id, Name: name})
}

// ServerError is the GenericServerError tagged with the id under which
// the underlying error was logged.
func ServerError(errorId string) Response {
	return errorResponse(500, errorBody{
		Code:    codes.RES_SERVER_ERROR,
		Error:   "internal server error",
		ErrorId: errorId,
	})
}

func errorResponse(status int, body errorBody) Response {
	data, err := json.Marshal(body)
	if err != nil {
		// can't happen with errorBody
		panic(err)
	}
	return Normal{status: status, code: body.Code, body: data}
}

type Invalid struct {
	Field string `json:"field"`
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func Validation(invalid []Invalid) Response {
	body, err := json.Marshal(struct {
		Code    int       `json:"code"`
		Error   string    `json:"error"`
		Invalid []Invalid `json:"invalid"`
	}{
		Code:    codes.RES_INVALID_DATA,
		Error:   "invalid data",
		Invalid: invalid,
	})
	if err != nil {
		panic(err)
	}
	return Normal{status: 400, code: codes.RES_INVALID_DATA, body: body}
}

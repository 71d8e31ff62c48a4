// Package request builds fasthttp requests for handler tests and
// asserts on the responses they produce.
package request

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/http/response"
)

type Handler func(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error)

type RequestBuilder struct {
	t    *testing.T
	env  *portal.Env
	conn *fasthttp.RequestCtx
}

// Req builds a request around an initialised RequestCtx. Handlers hand
// the conn to storage and errgroup as a context.Context, and a bare
// RequestCtx panics on Done().
func Req(t *testing.T) *RequestBuilder {
	conn := &fasthttp.RequestCtx{}
	conn.Init(&fasthttp.Request{}, nil, nil)
	return &RequestBuilder{t: t, conn: conn}
}

func ReqT(t *testing.T, env *portal.Env) *RequestBuilder {
	r := Req(t)
	r.env = env
	return r
}

// Body accepts a raw string or any value, which is marshalled to JSON.
func (r *RequestBuilder) Body(body any) *RequestBuilder {
	switch b := body.(type) {
	case string:
		r.conn.Request.SetBodyString(b)
	case []byte:
		r.conn.Request.SetBody(b)
	default:
		data, err := json.Marshal(body)
		require.NoError(r.t, err)
		r.conn.Request.SetBody(data)
	}
	return r
}

func (r *RequestBuilder) Header(key string, value string) *RequestBuilder {
	r.conn.Request.Header.Set(key, value)
	return r
}

func (r *RequestBuilder) Conn() *fasthttp.RequestCtx {
	return r.conn
}

func (r *RequestBuilder) Get(handler Handler) *Response {
	r.conn.Request.Header.SetMethod("GET")
	return r.run(handler)
}

func (r *RequestBuilder) Post(handler Handler) *Response {
	r.conn.Request.Header.SetMethod("POST")
	return r.run(handler)
}

func (r *RequestBuilder) run(handler Handler) *Response {
	res, err := handler(r.conn, r.env)
	require.NoError(r.t, err)
	res.Write(r.conn)
	return Res(r.t, r.conn)
}

type Response struct {
	t      *testing.T
	Status int
	Body   string
	JSON   JSON
}

func Res(t *testing.T, conn *fasthttp.RequestCtx) *Response {
	body := string(conn.Response.Body())
	res := &Response{t: t, Body: body, Status: conn.Response.StatusCode()}
	if len(body) > 0 && body[0] == '{' {
		var j JSON
		require.NoError(t, json.Unmarshal([]byte(body), &j))
		res.JSON = j
	}
	return res
}

func (r *Response) OK() *Response {
	return r.ExpectStatus(200)
}

func (r *Response) ExpectStatus(status int) *Response {
	r.t.Helper()
	assert.Equal(r.t, status, r.Status, r.Body)
	return r
}

// ExpectCode asserts both the status and the error code.
func (r *Response) ExpectCode(status int, code int) *Response {
	r.t.Helper()
	r.ExpectStatus(status)
	assert.Equal(r.t, code, r.JSON.Int("code"), r.Body)
	return r
}

func (r *Response) ExpectInvalid(code int) *Response {
	r.t.Helper()
	return r.ExpectCode(400, code)
}

// ExpectValidation takes field, code pairs.
func (r *Response) ExpectValidation(args ...any) *Response {
	r.t.Helper()
	r.ExpectCode(400, 2004)

	actual := map[string]int{}
	for _, i := range r.JSON.Objects("invalid") {
		actual[i.String("field")] = i.Int("code")
	}

	for i := 0; i < len(args); i += 2 {
		field := args[i].(string)
		code := args[i+1].(int)
		assert.Equal(r.t, code, actual[field], "field %s: %s", field, r.Body)
	}
	return r
}

func (r *Response) ExpectNoValidation(fields ...string) *Response {
	r.t.Helper()
	for _, i := range r.JSON.Objects("invalid") {
		assert.NotContains(r.t, fields, i.String("field"))
	}
	return r
}

type JSON map[string]any

func (j JSON) String(key string) string {
	s, _ := j[key].(string)
	return s
}

func (j JSON) Int(key string) int {
	f, _ := j[key].(float64)
	return int(f)
}

func (j JSON) Int64(key string) int64 {
	f, _ := j[key].(float64)
	return int64(f)
}

func (j JSON) Object(key string) JSON {
	o, _ := j[key].(map[string]any)
	return JSON(o)
}

func (j JSON) Strings(key string) []string {
	values, _ := j[key].([]any)
	result := make([]string, len(values))
	for i, v := range values {
		result[i], _ = v.(string)
	}
	return result
}

func (j JSON) Objects(key string) []JSON {
	values, _ := j[key].([]any)
	result := make([]JSON, len(values))
	for i, v := range values {
		o, _ := v.(map[string]any)
		result[i] = JSON(o)
	}
	return result
}

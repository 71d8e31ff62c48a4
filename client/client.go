// Package client talks to the portal API on behalf of a logged in
// member.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/distribution"
)

const defaultTimeout = 10 * time.Second

// APIError is any non-2xx response.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"error"`
	ErrorId string `json:"error_id"`
	Id      string `json:"id"`
	Name    string `json:"name"`
}

func (e *APIError) Error() string {
	if e.ErrorId != "" {
		return fmt.Sprintf("portal %d (%d) - %s [%s]", e.Status, e.Code, e.Message, e.ErrorId)
	}
	return fmt.Sprintf("portal %d (%d) - %s", e.Status, e.Code, e.Message)
}

type Config struct {
	// e.g. https://portal.example.org
	URL   string
	Token string
	// per request, defaults to 10 seconds
	Timeout time.Duration
}

type Client struct {
	url     string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

func New(config Config) *Client {
	return NewWithHTTP(config, &fasthttp.Client{
		NoDefaultUserAgentHeader: true,
		MaxConnsPerHost:          8,
	})
}

// NewWithHTTP lets tests supply a client dialing an in-memory listener.
func NewWithHTTP(config Config, http *fasthttp.Client) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:     config.URL,
		token:   config.Token,
		timeout: timeout,
		http:    http,
	}
}

type Committee struct {
	Id      string    `json:"id"`
	Name    string    `json:"name"`
	Members []string  `json:"members"`
	Created time.Time `json:"-"`
}

func (c *Client) Committees(ctx context.Context) ([]Committee, error) {
	var res struct {
		Results []struct {
			Committee
			Created int64 `json:"created"`
		} `json:"results"`
	}
	if err := c.do(ctx, "GET", "/v1/committees", nil, &res); err != nil {
		return nil, err
	}

	committees := make([]Committee, len(res.Results))
	for i, r := range res.Results {
		committees[i] = r.Committee
		committees[i].Created = time.UnixMilli(r.Created)
	}
	return committees, nil
}

// GenerateCodes returns the current code for each id, in order.
// Failures map back onto the server's error types: portal.ErrUnauthorized,
// *distribution.NotFoundError and *distribution.ForbiddenError.
func (c *Client) GenerateCodes(ctx context.Context, ids []string) (distribution.Result, error) {
	if ids == nil {
		ids = []string{}
	}
	var res struct {
		Secrets []string `json:"secrets"`
		EndTime int64    `json:"endTime"`
	}
	if err := c.do(ctx, "POST", "/v1/codes", map[string][]string{"ids": ids}, &res); err != nil {
		return distribution.Result{}, mapError(err)
	}
	return distribution.Result{Secrets: res.Secrets, EndTime: time.UnixMilli(res.EndTime)}, nil
}

func mapError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case codes.RES_UNAUTHORIZED:
		return fmt.Errorf("%w - %w", portal.ErrUnauthorized, err)
	case codes.RES_COMMITTEE_NOT_FOUND:
		return &distribution.NotFoundError{Id: apiErr.Id}
	case codes.RES_FORBIDDEN:
		return &distribution.ForbiddenError{Id: apiErr.Id, Name: apiErr.Name}
	}
	return err
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.url + path)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.http.DoDeadline(req, res, deadline); err != nil {
		return fmt.Errorf("portal %s %s - %w", method, path, err)
	}

	status := res.StatusCode()
	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(res.Body(), apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = fasthttp.StatusMessage(status)
		}
		return apiErr
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("portal %s %s decode - %w", method, path, err)
	}
	return nil
}

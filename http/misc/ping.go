package misc

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal/http/response"
	"github.com/sib-utrecht/portal/storage"
)

func Ping(conn *fasthttp.RequestCtx) (response.Response, error) {
	if err := storage.DB.Ping(); err != nil {
		return nil, fmt.Errorf("ping store - %w", err)
	}

	return response.OkBytes([]byte(`{"ok":true}`)), nil
}

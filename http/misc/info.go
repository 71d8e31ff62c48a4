package misc

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal/http/response"
	"github.com/sib-utrecht/portal/storage"
)

//go:generate sh -c "git rev-parse HEAD > commit.txt"
//go:embed commit.txt
var commit string

func Info(conn *fasthttp.RequestCtx) (response.Response, error) {
	storageInfo, err := storage.DB.Info()
	if err != nil {
		return nil, fmt.Errorf("storage info - %w", err)
	}

	return response.Ok(struct {
		Go      string `json:"go"`
		Commit  string `json:"commit"`
		Storage any    `json:"storage"`
	}{
		Commit:  strings.TrimSpace(commit),
		Go:      runtime.Version(),
		Storage: storageInfo,
	}), nil
}

package committees

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/http/response"
	"github.com/sib-utrecht/portal/storage"
)

func List(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error) {
	results := []committeeResponse{}

	// a caller without a stable id can't be on any roster
	if memberId := env.Identity.StableId(); memberId != "" {
		committees, err := storage.DB.ListCommittees(conn, memberId)
		if err != nil {
			return nil, fmt.Errorf("committees list - %w", err)
		}
		sortByName(committees)
		for _, c := range committees {
			results = append(results, toResponse(c))
		}
	}

	return response.Ok(struct {
		Results []committeeResponse `json:"results"`
	}{
		Results: results,
	}), nil
}

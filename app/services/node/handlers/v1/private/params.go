package private

import (
	"net/http"
	"strconv"

	"github.com/ardanlabs/blockchain/foundation/blockchain/state"
	"github.com/dimfeld/httptreemux/v5"
)

func paramsFrom(r *http.Request) map[string]string {
	return httptreemux.ContextParams(r.Context())
}

// parseBlockParam converts a path segment into a block number, treating the
// literal "latest" as state.QueryLastest.
func parseBlockParam(s string) (uint64, error) {
	if s == "latest" {
		return state.QueryLastest, nil
	}

	return strconv.ParseUint(s, 10, 64)
}

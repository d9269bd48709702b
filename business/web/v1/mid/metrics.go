package mid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/blockchain/business/web/metrics"
	"github.com/ardanlabs/blockchain/foundation/web"
)

// Metrics updates program counters using the Prometheus collectors defined
// in the metrics package.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			v := web.GetValues(ctx)
			metrics.Requests.WithLabelValues(r.URL.Path, fmt.Sprintf("%d", v.StatusCode)).Inc()

			return err
		}

		return h
	}

	return m
}

package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/blockchain/business/web/errs"
	"github.com/ardanlabs/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform
// way. Unexpected errors (status >= 500) are shown to the client in a
// generic way so no information of value is leaked.
func Errors(log *zap.SugaredLogger) web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := web.GetValues(ctx)

			if err := handler(ctx, w, r); err != nil {
				log.Errorw("request error", "traceid", v.TraceID, "ERROR", err)

				var resp errs.Response
				var status int

				if trusted := errs.GetTrusted(err); trusted != nil {
					resp = errs.Response{Error: trusted.Error()}
					status = trusted.Status
				} else {
					resp = errs.Response{Error: http.StatusText(http.StatusInternalServerError)}
					status = http.StatusInternalServerError
				}

				if err := web.Respond(ctx, w, resp, status); err != nil {
					return err
				}

				if !errs.IsTrusted(err) {
					return err
				}
			}

			return nil
		}

		return h
	}

	return m
}

package middleware

import (
	"context"

	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/router"
	"github.com/fafcommunity/backend/pkg/xcontext"
)

// ResolvePlayer trusts the player identity resolved by the upstream auth
// gateway and puts it on the request context.
func ResolvePlayer() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		id := xcontext.HTTPRequest(ctx).Header.Get("X-Player-Id")
		if id == "" {
			return ctx, errorx.New(errorx.Unauthenticated, "Missing player identity")
		}

		return xcontext.WithRequestUserID(ctx, id), nil
	}
}

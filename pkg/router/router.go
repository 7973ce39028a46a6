package router

import (
	"context"
	"mime"
	"net/http"

	"github.com/fafcommunity/backend/config"
	"github.com/fafcommunity/backend/pkg/errorx"
	"github.com/fafcommunity/backend/pkg/logger"
	"github.com/fafcommunity/backend/pkg/xcontext"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

type Router struct {
	inner  gin.IRouter
	engine *gin.Engine
	db     *gorm.DB
	cfg    config.Configs
	logger logger.Logger
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		inner:  engine,
		engine: engine,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}

	engine.Use(func(ctx *gin.Context) {
		seeded := ctx.Request.Context()
		seeded = xcontext.WithConfigs(seeded, r.cfg)
		seeded = xcontext.WithLogger(seeded, r.logger)
		seeded = xcontext.WithDB(seeded, r.db)
		seeded = xcontext.WithHTTPRequest(seeded, ctx.Request)
		seeded = xcontext.WithHTTPWriter(seeded, ctx.Writer)
		ctx.Request = ctx.Request.WithContext(seeded)
	})

	return r
}

// Before registers a middleware running ahead of every handler registered on
// this router afterwards.
func (r *Router) Before(middleware MiddlewareFunc) {
	r.inner.Use(wrapMiddleware(middleware))
}

// Branch returns a router sharing the engine but with an independent
// middleware chain.
func (r *Router) Branch() *Router {
	branch := *r
	branch.inner = r.inner.Group("")
	return &branch
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(handler))
}

func wrapMiddleware(middleware MiddlewareFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		next, err := middleware(ctx.Request.Context())
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusOK, newErrorResponse(err))
			return
		}

		ctx.Request = ctx.Request.WithContext(next)
	}
}

func wrapHandler[Request, Response any](handler HandlerFunc[Request, Response]) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var body Request
		if err := bindRequest(ctx, &body); err != nil {
			ctx.JSON(http.StatusOK, newErrorResponse(
				errorx.New(errorx.BadRequest, "Cannot parse the request")))
			return
		}

		resp, err := handler(ctx.Request.Context(), &body)
		if err != nil {
			ctx.JSON(http.StatusOK, newErrorResponse(err))
			return
		}

		ctx.JSON(http.StatusOK, newResponse(resp))
	}
}

// bindRequest decodes a JSON body into the request struct. Multipart requests
// are left to the handler, which reads them through xcontext.HTTPRequest.
func bindRequest(ctx *gin.Context, body any) error {
	if ctx.Request.Method == http.MethodGet {
		return ctx.ShouldBindQuery(body)
	}

	mediaType, _, err := mime.ParseMediaType(ctx.GetHeader("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil
	}

	return ctx.ShouldBindJSON(body)
}

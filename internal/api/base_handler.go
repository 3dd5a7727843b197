package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/utils"
)

type BaseHandler struct{}

// RequestCtx lifts gin's request-scoped keys into a plain context so the
// service layer never sees gin.
func (h *BaseHandler) RequestCtx(ginCtx *gin.Context) context.Context {
	ctx := ginCtx.Request.Context()
	for k, v := range ginCtx.Keys {
		contextKey := utils.ContextKey(k)
		ctx = context.WithValue(ctx, contextKey, v)
	}
	return ctx
}

package controller

import (
	"strconv"
	"unix_companion/internal/service"
	"unix_companion/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Service *service.NotifyService
}

func NewNotificationController(svc *service.NotifyService) *NotificationController {
	return &NotificationController{Service: svc}
}

// List returns notices newer than the "after" cursor; the shim polls this
// and renders toasts / schedules reloads.
func (c *NotificationController) List(ctx *gin.Context) {
	after := uint64(0)
	if raw := ctx.Query("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid after cursor")
			return
		}
		after = parsed
	}

	util.Success(ctx, c.Service.Since(after))
}

package controller

import (
	"unix_companion/internal/service"
	"unix_companion/internal/util"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	Service *service.AnswerService
}

func NewAnswerController(svc *service.AnswerService) *AnswerController {
	return &AnswerController{Service: svc}
}

// Lookup serves the highlighter: given the question text as rendered on
// screen, return the known-correct answers.
func (c *AnswerController) Lookup(ctx *gin.Context) {
	q := ctx.Query("q")
	if q == "" {
		util.BadRequest(ctx, "q is required")
		return
	}

	answers, ok := c.Service.AnswersFor(q)
	if !ok {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, gin.H{"answers": answers})
}

func (c *AnswerController) All(ctx *gin.Context) {
	mapping, err := c.Service.All()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, mapping)
}

package controller

import (
	"errors"
	"unix_companion/internal/service"
	"unix_companion/internal/util"

	"github.com/gin-gonic/gin"
)

type StateController struct {
	Service *service.StateService
	Pages   *service.PageService
}

func NewStateController(svc *service.StateService, pages *service.PageService) *StateController {
	return &StateController{Service: svc, Pages: pages}
}

type stateWriteRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// PutState mirrors one localStorage.setItem from the page.
func (c *StateController) PutState(ctx *gin.Context) {
	var req stateWriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.Put(req.Key, req.Value); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

func (c *StateController) GetState(ctx *gin.Context) {
	key := ctx.Param("key")
	value, err := c.Service.Get(key)
	if errors.Is(err, util.ErrStateKeyNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"key": key, "value": value})
}

type pageRequest struct {
	URL string `json:"url" binding:"required"`
}

// PutPage records the page the user navigated to.
func (c *StateController) PutPage(ctx *gin.Context) {
	var req pageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	c.Pages.SetLocation(req.URL)
	util.Success(ctx, gin.H{"lessonId": c.Pages.CurrentLessonID()})
}

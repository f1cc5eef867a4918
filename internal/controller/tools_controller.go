package controller

import (
	"net/http"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/gin-gonic/gin"
)

// ToolsController is the authenticated front door of the tool-call surface.
// The bearer middleware has already resolved the token by the time a
// handler runs; this controller enforces the per-tool scope and hands the
// verified auth context to the task domain, which owns tool execution.
type ToolsController struct {
	router *gin.RouterGroup
	tokens *service.TokenService
}

func NewToolsController(router *gin.RouterGroup, tokens *service.TokenService) *ToolsController {
	return &ToolsController{
		router: router,
		tokens: tokens,
	}
}

func (controller *ToolsController) SetupRoutes() {
	controller.router.POST("/tools/:toolName", controller.callHandler)
}

func (controller *ToolsController) callHandler(c *gin.Context) {
	authContext, err := utils.GetAuthContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "missing auth context",
		})
		return
	}

	toolName := c.Param("toolName")

	if err := controller.tokens.EnsureToolAllowed(authContext, toolName); err != nil {
		oauthErr := oauth.AsError(err)
		c.JSON(oauthErr.Status, gin.H{
			"error":             oauthErr.Code,
			"error_description": oauthErr.Description,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tool":         toolName,
		"user_id":      authContext.UserID,
		"workspace_id": authContext.WorkspaceID,
		"client_id":    authContext.ClientID,
		"tool_names":   authContext.ToolNames,
	})
}

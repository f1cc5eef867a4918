package controller

import (
	"net/http"

	"github.com/taskgate/taskgate/internal/oauth"
	"github.com/taskgate/taskgate/internal/service"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/gin-gonic/gin"
)

type ConnectionController struct {
	router     *gin.RouterGroup
	consents   *service.ConsentService
	workspaces service.RoleProvider
}

// ConnectionController is the workspace-facing API over existing consents,
// consumed by the connection-management settings UI. Every route is gated
// on the session user holding the owner or admin role in the workspace.
func NewConnectionController(router *gin.RouterGroup, consents *service.ConsentService, workspaces service.RoleProvider) *ConnectionController {
	return &ConnectionController{
		router:     router,
		consents:   consents,
		workspaces: workspaces,
	}
}

func (controller *ConnectionController) SetupRoutes() {
	workspaceGroup := controller.router.Group("/workspaces/:workspaceID")
	workspaceGroup.GET("/connections", controller.listHandler)
	workspaceGroup.PATCH("/connections/:clientID", controller.updateHandler)
	workspaceGroup.DELETE("/connections/:clientID", controller.revokeHandler)
}

// requireRole resolves the session identity and checks the owner/admin gate.
func (controller *ConnectionController) requireRole(c *gin.Context, workspaceID string) bool {
	identity, err := utils.GetIdentity(c)
	if err != nil || !identity.IsLoggedIn {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "authentication required",
		})
		return false
	}

	role, err := controller.workspaces.Role(workspaceID, identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "failed to resolve workspace role",
		})
		return false
	}

	if !service.CanAuthorize(role) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":             "access_denied",
			"error_description": "managing connections requires the owner or admin role",
		})
		return false
	}

	return true
}

func (controller *ConnectionController) listHandler(c *gin.Context) {
	workspaceID := c.Param("workspaceID")

	if !controller.requireRole(c, workspaceID) {
		return
	}

	connections, err := controller.consents.ListWorkspaceConnections(workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "failed to list connections",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
	})
}

type updateConnectionRequest struct {
	UserID    string   `json:"user_id"`
	ToolNames []string `json:"tool_names"`
}

func (controller *ConnectionController) updateHandler(c *gin.Context) {
	workspaceID := c.Param("workspaceID")
	clientID := c.Param("clientID")

	if !controller.requireRole(c, workspaceID) {
		return
	}

	var request updateConnectionRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_id and tool_names are required",
		})
		return
	}

	consent, err := controller.consents.UpdateToolScopes(request.UserID, workspaceID, clientID, request.ToolNames)
	if err != nil {
		oauthErr := oauth.AsError(err)
		c.JSON(oauthErr.Status, gin.H{
			"error":             oauthErr.Code,
			"error_description": oauthErr.Description,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":  consent.ClientID,
		"scopes":     controller.consents.Scopes(consent),
		"updated_at": consent.UpdatedAt,
	})
}

func (controller *ConnectionController) revokeHandler(c *gin.Context) {
	workspaceID := c.Param("workspaceID")
	clientID := c.Param("clientID")

	if !controller.requireRole(c, workspaceID) {
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "user_id is required",
		})
		return
	}

	if err := controller.consents.Revoke(userID, workspaceID, clientID); err != nil {
		oauthErr := oauth.AsError(err)
		c.JSON(oauthErr.Status, gin.H{
			"error":             oauthErr.Code,
			"error_description": oauthErr.Description,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "revoked",
	})
}

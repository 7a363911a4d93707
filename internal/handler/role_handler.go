package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meshboard/meshgate/internal/pkg/response"
	"github.com/meshboard/meshgate/internal/service"
)

type RoleHandler struct {
	roles *service.RoleService
}

func NewRoleHandler(roles *service.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type bulkRoleRequest struct {
	TenantID string           `json:"tenantId"`
	Updates  []bulkRoleUpdate `json:"updates"`
}

type bulkRoleUpdate struct {
	UserID string  `json:"userId"`
	Role   *string `json:"role"`
}

func (h *RoleHandler) Bulk(c *gin.Context) {
	var req bulkRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.TenantID == "" || len(req.Updates) == 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "tenantId and updates are required")
		return
	}
	allowed, err := h.roles.CanManage(c.Request.Context(), req.TenantID, getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if !allowed {
		response.Error(c, http.StatusForbidden, "forbidden", "tenant ADMIN or OWNER required")
		return
	}
	updates := make([]service.RoleUpdate, 0, len(req.Updates))
	for _, item := range req.Updates {
		updates = append(updates, service.RoleUpdate{UserID: item.UserID, Role: item.Role})
	}
	results, err := h.roles.ApplyBulk(c.Request.Context(), req.TenantID, updates)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}

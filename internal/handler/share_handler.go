package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meshboard/meshgate/internal/pkg/response"
	"github.com/meshboard/meshgate/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type generateShareRequest struct {
	ResourceID    string `json:"resourceId"`
	ContentType   string `json:"contentType"`
	Role          string `json:"role"`
	TTL           int64  `json:"ttl"`
	TenantID      string `json:"tenantId"`
	Mode          string `json:"mode"`
	AssistantName string `json:"assistantName"`
}

func (h *ShareHandler) Generate(c *gin.Context) {
	var req generateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	result, err := h.shares.IssueLink(c.Request.Context(), service.IssueInput{
		ResourceID:    req.ResourceID,
		ResourceType:  req.ContentType,
		Role:          req.Role,
		TTLSeconds:    req.TTL,
		Mode:          req.Mode,
		AssistantName: req.AssistantName,
		TenantID:      req.TenantID,
		IssuerUserID:  getUserID(c),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"link":  result.ShareURL,
		"token": result.RawToken,
	})
}

type redeemShareRequest struct {
	Token string `json:"token"`
}

func (h *ShareHandler) Redeem(c *gin.Context) {
	var req redeemShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	redemption, err := h.shares.Redeem(c.Request.Context(), req.Token, getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"resourceId":   redemption.ResourceID,
		"resourceType": redemption.ResourceType,
		"role":         redemption.Role,
		"targetMode":   redemption.TargetMode,
	})
}

// Resolve exchanges a short link key for its stored payload. The payload's
// token field is still encrypted; resolving a key discloses nothing a holder
// of the full share URL would not already see.
func (h *ShareHandler) Resolve(c *gin.Context) {
	payload, err := h.shares.ResolveLink(c.Request.Context(), c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"payload": json.RawMessage(payload)})
}

func (h *ShareHandler) AdminList(c *gin.Context) {
	tokens, err := h.shares.ListEnriched(c.Request.Context(), c.Query("tenantId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"tokens": tokens})
}

type deleteShareRequest struct {
	TokenID    string `json:"tokenId"`
	HardDelete bool   `json:"hardDelete"`
}

func (h *ShareHandler) AdminDelete(c *gin.Context) {
	var req deleteShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := h.shares.Revoke(c.Request.Context(), req.TokenID, req.HardDelete); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

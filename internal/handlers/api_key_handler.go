package handlers

import (
	"factura/internal/middleware"
	"factura/internal/services"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// APIKeyHandler API密钥处理器
type APIKeyHandler struct {
	service *services.APIKeyService
}

// NewAPIKeyHandler 创建API密钥处理器实例
func NewAPIKeyHandler(service *services.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: service}
}

// Create 签发API密钥。原始密钥只在本次响应中返回一次，
// 之后系统只保留摘要；重复调用会替换旧密钥
func (h *APIKeyHandler) Create(c *gin.Context) {
	rawKey, err := h.service.Issue(middleware.TenantID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{"api_key": rawKey})
}

// Get 获取密钥元数据（是否存在、创建时间、是否已吊销）
func (h *APIKeyHandler) Get(c *gin.Context) {
	key, err := h.service.GetByTenant(middleware.TenantID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	if key == nil {
		response.Success(c, gin.H{"exists": false})
		return
	}

	response.Success(c, gin.H{
		"exists":     true,
		"created_at": key.CreatedAt,
		"revoked":    key.Revoked,
	})
}

// Revoke 吊销当前API密钥
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	if err := h.service.Revoke(middleware.TenantID(c)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "密钥已吊销", nil)
}

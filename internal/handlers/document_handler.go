package handlers

import (
	"fmt"
	"strconv"

	"factura/internal/middleware"
	"factura/internal/services"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 单据处理器
type DocumentHandler struct {
	service *services.DocumentService
}

// NewDocumentHandler 创建单据处理器实例
func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// RenderInvoice 渲染发票PDF并作为附件下载
func (h *DocumentHandler) RenderInvoice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	data, filename, err := h.service.RenderInvoice(middleware.TenantID(c), uint(id))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/pdf", data)
}

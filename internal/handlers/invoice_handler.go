package handlers

import (
	"strconv"

	"factura/internal/middleware"
	"factura/internal/models"
	"factura/internal/services"
	"factura/pkg/config"
	"factura/pkg/pagination"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler 发票处理器
type InvoiceHandler struct {
	service *services.InvoiceService
}

// NewInvoiceHandler 创建发票处理器实例
func NewInvoiceHandler(service *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// CreateInvoiceRequest 创建发票请求（发票号可选，为空时自动生成）
type CreateInvoiceRequest struct {
	CompanyID     uint    `json:"company_id" binding:"required"`
	InvoiceNumber string  `json:"invoice_number" binding:"max=100"`
	Currency      string  `json:"currency" binding:"required,len=3"`
	Total         float64 `json:"total" binding:"min=0"`
}

// UpdateInvoiceRequest 更新发票请求
type UpdateInvoiceRequest struct {
	CompanyID     *uint    `json:"company_id"`
	InvoiceNumber *string  `json:"invoice_number" binding:"omitempty,max=100"`
	Currency      *string  `json:"currency" binding:"omitempty,len=3"`
	Total         *float64 `json:"total" binding:"omitempty,min=0"`
}

// DuplicateInvoiceRequest 复制发票请求
type DuplicateInvoiceRequest struct {
	CompanyID     uint   `json:"company_id" binding:"required"`
	InvoiceNumber string `json:"invoice_number" binding:"max=100"`
}

// Create 创建发票
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	invoice, err := h.service.Create(middleware.TenantID(c),
		req.CompanyID, req.InvoiceNumber, req.Currency, req.Total)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invoice)
}

// GetByID 获取发票
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	invoice, err := h.service.GetByID(middleware.TenantID(c), uint(id))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invoice)
}

// GetAll 获取发票列表（分页，支持按公司和状态筛选）
func (h *InvoiceHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	var companyID uint
	if v := c.Query("company_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "公司ID格式错误")
			return
		}
		companyID = uint(parsed)
	}
	status := c.Query("status")

	invoices, total, err := h.service.GetWithFiltersAndPage(middleware.TenantID(c),
		companyID, status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, invoices, pageInfo)
}

// GetAllExternal 程序化接口的发票列表（limit截断，最新在前）
func (h *InvoiceHandler) GetAllExternal(c *gin.Context) {
	limit := pagination.ParseLimit(c, 0, config.GetConfig().Invoice.ListLimit)

	var companyID uint
	if v := c.Query("company_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "公司ID格式错误")
			return
		}
		companyID = uint(parsed)
	}

	invoices, err := h.service.List(middleware.TenantID(c), companyID, limit)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, invoices)
}

// Update 更新发票（仅草稿状态）
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	params := &services.UpdateInvoiceParams{
		CompanyID:     req.CompanyID,
		InvoiceNumber: req.InvoiceNumber,
		Currency:      req.Currency,
		Total:         req.Total,
	}

	invoice, err := h.service.Update(middleware.TenantID(c), uint(id), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invoice)
}

// Finalize 定稿发票
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	h.doTransition(c, h.service.Finalize)
}

// Cancel 作废发票
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.doTransition(c, h.service.Cancel)
}

// Pay 发票收款
func (h *InvoiceHandler) Pay(c *gin.Context) {
	h.doTransition(c, h.service.Pay)
}

// Duplicate 复制公司最近一张发票为新草稿
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	var req DuplicateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	invoice, err := h.service.Duplicate(middleware.TenantID(c),
		req.CompanyID, req.InvoiceNumber)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invoice)
}

// Delete 删除发票
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(middleware.TenantID(c), uint(id)); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// GetStats 获取发票统计
func (h *InvoiceHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(middleware.TenantID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, stats)
}

// doTransition 状态流转的公共处理
func (h *InvoiceHandler) doTransition(c *gin.Context, op func(string, uint) (*models.Invoice, error)) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	invoice, err := op(middleware.TenantID(c), uint(id))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, invoice)
}

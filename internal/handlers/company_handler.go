package handlers

import (
	"strconv"

	"factura/internal/middleware"
	"factura/internal/models"
	"factura/internal/services"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// CompanyHandler 公司处理器
type CompanyHandler struct {
	service *services.CompanyService
}

// NewCompanyHandler 创建公司处理器实例
func NewCompanyHandler(service *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// CreateCompanyRequest 创建公司请求
type CreateCompanyRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	TaxID      string `json:"tax_id" binding:"max=50"`
	Email      string `json:"email" binding:"omitempty,email,max=100"`
	Address    string `json:"address" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Website    string `json:"website" binding:"max=200"`
	IsIssuer   bool   `json:"is_issuer"`
}

// UpdateCompanyRequest 更新公司请求
type UpdateCompanyRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=200"`
	TaxID      *string `json:"tax_id" binding:"omitempty,max=50"`
	Email      *string `json:"email" binding:"omitempty,email,max=100"`
	Address    *string `json:"address" binding:"omitempty,max=200"`
	City       *string `json:"city" binding:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" binding:"omitempty,max=20"`
	Website    *string `json:"website" binding:"omitempty,max=200"`
	IsIssuer   *bool   `json:"is_issuer"`
}

// Create 创建公司
func (h *CompanyHandler) Create(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	company := &models.Company{
		Name:       req.Name,
		TaxID:      req.TaxID,
		Email:      req.Email,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Website:    req.Website,
		IsIssuer:   req.IsIssuer,
	}

	if err := h.service.Create(middleware.TenantID(c), company); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, company)
}

// GetByID 获取公司
func (h *CompanyHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	company, err := h.service.GetByID(middleware.TenantID(c), uint(id))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, company)
}

// GetAll 获取租户的全部公司
func (h *CompanyHandler) GetAll(c *gin.Context) {
	companies, err := h.service.List(middleware.TenantID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, companies)
}

// GetIssuer 获取开票方公司（不存在时data为空）
func (h *CompanyHandler) GetIssuer(c *gin.Context) {
	company, err := h.service.GetIssuer(middleware.TenantID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, company)
}

// Update 更新公司
func (h *CompanyHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	params := &services.UpdateCompanyParams{
		Name:       req.Name,
		TaxID:      req.TaxID,
		Email:      req.Email,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Website:    req.Website,
		IsIssuer:   req.IsIssuer,
	}

	company, err := h.service.Update(middleware.TenantID(c), uint(id), params)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, company)
}

// Delete 删除公司
func (h *CompanyHandler) Delete(c *gin.Context) {
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

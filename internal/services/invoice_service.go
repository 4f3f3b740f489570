package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"factura/internal/models"
	"factura/pkg/config"
	apperrors "factura/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceService 发票服务 - 状态机与编号规则的唯一入口
type InvoiceService struct {
	db *gorm.DB
}

// NewInvoiceService 创建发票服务实例
func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// InvoiceStats 发票统计信息
type InvoiceStats struct {
	Total      int64   `json:"total"`
	Draft      int64   `json:"draft"`
	Finalized  int64   `json:"finalized"`
	Paid       int64   `json:"paid"`
	Cancelled  int64   `json:"cancelled"`
	PaidAmount float64 `json:"paid_amount"`
}

// UpdateInvoiceParams 更新发票参数（nil表示不修改）
type UpdateInvoiceParams struct {
	CompanyID     *uint
	InvoiceNumber *string
	Currency      *string
	Total         *float64
}

// Create 创建发票（草稿状态，无任何时间戳）。
// 未提供发票号时自动生成；发票号在租户内唯一，冲突返回Conflict
func (s *InvoiceService) Create(tenantID string, companyID uint, invoiceNumber, currency string, total float64) (*models.Invoice, error) {
	if tenantID == "" {
		return nil, apperrors.NewUnauthorized("缺少租户身份")
	}

	currency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if total < 0 {
		return nil, apperrors.NewInvalidParam("发票金额不能为负数")
	}

	// 校验客户公司存在且归属当前租户
	if _, err := s.ownedCompany(tenantID, companyID); err != nil {
		return nil, err
	}

	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		invoiceNumber = s.generateNumber()
	}
	if err := s.checkNumberUnique(tenantID, invoiceNumber, 0); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		TenantID:      tenantID,
		CompanyID:     companyID,
		InvoiceNumber: invoiceNumber,
		Status:        models.InvoiceStatusDraft,
		Currency:      currency,
		Total:         total,
	}

	if err := s.db.Create(invoice).Error; err != nil {
		// 并发创建撞到唯一索引时同样按冲突返回
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("发票号已存在")
		}
		return nil, err
	}

	return invoice, nil
}

// Update 更新发票。只有草稿状态可以自由编辑，
// 其余状态一律通过状态流转操作变更
func (s *InvoiceService) Update(tenantID string, id uint, params *UpdateInvoiceParams) (*models.Invoice, error) {
	invoice, err := s.getOwned(tenantID, id)
	if err != nil {
		return nil, err
	}
	if !invoice.IsDraft() {
		return nil, apperrors.NewInvalidTransition("只有草稿状态的发票可以编辑")
	}

	updates := map[string]interface{}{}
	if params.CompanyID != nil {
		if _, err := s.ownedCompany(tenantID, *params.CompanyID); err != nil {
			return nil, err
		}
		updates["company_id"] = *params.CompanyID
	}
	if params.InvoiceNumber != nil {
		number := strings.TrimSpace(*params.InvoiceNumber)
		if number == "" {
			return nil, apperrors.NewInvalidParam("发票号不能为空")
		}
		if err := s.checkNumberUnique(tenantID, number, invoice.ID); err != nil {
			return nil, err
		}
		updates["invoice_number"] = number
	}
	if params.Currency != nil {
		currency, err := normalizeCurrency(*params.Currency)
		if err != nil {
			return nil, err
		}
		updates["currency"] = currency
	}
	if params.Total != nil {
		if *params.Total < 0 {
			return nil, apperrors.NewInvalidParam("发票金额不能为负数")
		}
		updates["total"] = *params.Total
	}
	if len(updates) == 0 {
		return invoice, nil
	}

	if err := s.applyDraftEdit(invoice.ID, updates); err != nil {
		return nil, err
	}

	return s.getOwned(tenantID, id)
}

// applyDraftEdit 条件写入草稿编辑：仅当发票此刻仍是草稿时生效。
// 预检查之后若有并发流转抢先提交，这里会因条件不满足而拒绝写入，
// 不会把过期的草稿快照盖回已流转的发票
func (s *InvoiceService) applyDraftEdit(id uint, updates map[string]interface{}) error {
	result := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, models.InvoiceStatusDraft).
		Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflict("发票号已存在")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewInvalidTransition("只有草稿状态的发票可以编辑")
	}
	return nil
}

// Finalize 定稿：draft -> finalized，写入finalized_at
func (s *InvoiceService) Finalize(tenantID string, id uint) (*models.Invoice, error) {
	return s.transition(tenantID, id, "finalize",
		[]string{models.InvoiceStatusDraft},
		models.InvoiceStatusFinalized, "finalized_at")
}

// Cancel 作废：draft/finalized -> cancelled，写入cancelled_at
func (s *InvoiceService) Cancel(tenantID string, id uint) (*models.Invoice, error) {
	return s.transition(tenantID, id, "cancel",
		[]string{models.InvoiceStatusDraft, models.InvoiceStatusFinalized},
		models.InvoiceStatusCancelled, "cancelled_at")
}

// Pay 收款：finalized -> paid，写入paid_at
func (s *InvoiceService) Pay(tenantID string, id uint) (*models.Invoice, error) {
	return s.transition(tenantID, id, "pay",
		[]string{models.InvoiceStatusFinalized},
		models.InvoiceStatusPaid, "paid_at")
}

// transition 执行状态流转
func (s *InvoiceService) transition(tenantID string, id uint, event string, from []string, target, stampColumn string) (*models.Invoice, error) {
	invoice, err := s.getOwned(tenantID, id)
	if err != nil {
		return nil, err
	}

	if !statusIn(invoice.Status, from) {
		return nil, transitionError(invoice.Status, event)
	}

	won, err := s.applyTransition(invoice.ID, from, target, stampColumn)
	if err != nil {
		return nil, err
	}
	if !won {
		// 已被并发请求抢先流转，按最新状态报错
		current, err := s.getOwned(tenantID, id)
		if err != nil {
			return nil, err
		}
		return nil, transitionError(current.Status, event)
	}

	return s.getOwned(tenantID, id)
}

// applyTransition 条件更新执行流转，返回本次写入是否生效。
// WHERE 限定合法起点状态，并发请求最多一个生效，时间戳只会被写入一次
func (s *InvoiceService) applyTransition(id uint, from []string, target, stampColumn string) (bool, error) {
	result := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":    target,
			stampColumn: time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Duplicate 复制指定公司最近一张发票为新草稿。
// “最近”按 created_at 降序，创建时间相同时按 id 降序（即插入顺序）；
// 新发票使用调用方提供或自动生成的发票号，不携带任何时间戳，源发票不被修改
func (s *InvoiceService) Duplicate(tenantID string, companyID uint, invoiceNumber string) (*models.Invoice, error) {
	if _, err := s.ownedCompany(tenantID, companyID); err != nil {
		return nil, err
	}

	var source models.Invoice
	err := s.db.Where("tenant_id = ? AND company_id = ?", tenantID, companyID).
		Order("created_at DESC, id DESC").
		First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("该公司暂无可复制的发票")
	}
	if err != nil {
		return nil, err
	}

	return s.Create(tenantID, companyID, invoiceNumber, source.Currency, source.Total)
}

// List 获取租户的发票（最新在前），limit截断到配置上限
func (s *InvoiceService) List(tenantID string, companyID uint, limit int) ([]*models.Invoice, error) {
	maxLimit := config.GetConfig().Invoice.ListLimit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	query := s.db.Where("tenant_id = ?", tenantID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}

	var invoices []*models.Invoice
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&invoices).Error
	return invoices, err
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *InvoiceService) GetWithFiltersAndPage(tenantID string, companyID uint, status string, page, pageSize int) ([]*models.Invoice, int64, error) {
	query := s.db.Model(&models.Invoice{}).Where("tenant_id = ?", tenantID)

	// 添加过滤条件
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	// 计算总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	var invoices []*models.Invoice
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").
		Offset(offset).Limit(pageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// GetByID 根据ID获取发票
func (s *InvoiceService) GetByID(tenantID string, id uint) (*models.Invoice, error) {
	return s.getOwned(tenantID, id)
}

// Delete 删除发票
func (s *InvoiceService) Delete(tenantID string, id uint) error {
	invoice, err := s.getOwned(tenantID, id)
	if err != nil {
		return err
	}
	return s.db.Delete(&models.Invoice{}, invoice.ID).Error
}

// GetStats 获取租户发票统计
func (s *InvoiceService) GetStats(tenantID string) (*InvoiceStats, error) {
	stats := &InvoiceStats{}

	base := func() *gorm.DB {
		return s.db.Model(&models.Invoice{}).Where("tenant_id = ?", tenantID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		status string
		dest   *int64
	}{
		{models.InvoiceStatusDraft, &stats.Draft},
		{models.InvoiceStatusFinalized, &stats.Finalized},
		{models.InvoiceStatusPaid, &stats.Paid},
		{models.InvoiceStatusCancelled, &stats.Cancelled},
	}
	for _, sc := range statusCounts {
		if err := base().Where("status = ?", sc.status).Count(sc.dest).Error; err != nil {
			return nil, err
		}
	}

	var paidAmount *float64
	if err := base().Where("status = ?", models.InvoiceStatusPaid).
		Select("SUM(total)").Scan(&paidAmount).Error; err != nil {
		return nil, err
	}
	if paidAmount != nil {
		stats.PaidAmount = *paidAmount
	}

	return stats, nil
}

// ========== 内部辅助方法 ==========

// generateNumber 生成发票号：前缀 + UTC时间 + 随机后缀，
// 随机后缀用于避免同一秒内的碰撞
func (s *InvoiceService) generateNumber() string {
	cfg := config.GetConfig()
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", cfg.Invoice.NumberPrefix,
		time.Now().UTC().Format("20060102-150405"), suffix)
}

// checkNumberUnique 校验发票号在租户内唯一（excludeID排除自身）
func (s *InvoiceService) checkNumberUnique(tenantID, invoiceNumber string, excludeID uint) error {
	query := s.db.Model(&models.Invoice{}).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("发票号已存在")
	}
	return nil
}

// getOwned 读取并校验归属：记录不存在返回NotFound，跨租户访问返回Forbidden
func (s *InvoiceService) getOwned(tenantID string, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("发票不存在")
		}
		return nil, err
	}
	if invoice.TenantID != tenantID {
		return nil, apperrors.NewForbidden("无权访问该发票")
	}
	return &invoice, nil
}

// ownedCompany 校验公司存在且归属当前租户
func (s *InvoiceService) ownedCompany(tenantID string, companyID uint) (*models.Company, error) {
	if companyID == 0 {
		return nil, apperrors.NewInvalidParam("客户公司不能为空")
	}
	var company models.Company
	if err := s.db.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("公司不存在")
		}
		return nil, err
	}
	if company.TenantID != tenantID {
		return nil, apperrors.NewForbidden("无权访问该公司")
	}
	return &company, nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", apperrors.NewInvalidParam("币种必须为3位代码")
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", apperrors.NewInvalidParam("币种必须为3位字母代码")
		}
	}
	return currency, nil
}

func statusIn(status string, list []string) bool {
	for _, s := range list {
		if status == s {
			return true
		}
	}
	return false
}

func transitionError(status, event string) error {
	return apperrors.NewInvalidTransition(
		fmt.Sprintf("发票当前状态为 %s，不允许执行 %s 操作", status, event))
}

package services

import (
	"errors"

	"factura/internal/models"
	apperrors "factura/pkg/errors"

	"gorm.io/gorm"
)

// CompanyService 公司服务
type CompanyService struct {
	db *gorm.DB
}

// NewCompanyService 创建公司服务实例
func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// UpdateCompanyParams 更新公司参数（nil表示不修改）
type UpdateCompanyParams struct {
	Name       *string
	TaxID      *string
	Email      *string
	Address    *string
	City       *string
	PostalCode *string
	Website    *string
	IsIssuer   *bool
}

// Create 创建公司。
// 标记为开票方时通过 saveIssuer 提交，保证任意时刻每个租户最多一家开票方公司
func (s *CompanyService) Create(tenantID string, company *models.Company) error {
	if tenantID == "" {
		return apperrors.NewUnauthorized("缺少租户身份")
	}
	if company.Name == "" {
		return apperrors.NewInvalidParam("公司名称不能为空")
	}

	company.TenantID = tenantID

	if !company.IsIssuer {
		return s.db.Create(company).Error
	}
	return s.saveIssuer(tenantID, 0, func(tx *gorm.DB) error {
		return tx.Create(company).Error
	})
}

// Update 更新公司
func (s *CompanyService) Update(tenantID string, id uint, params *UpdateCompanyParams) (*models.Company, error) {
	company, err := s.getOwned(tenantID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.NewInvalidParam("公司名称不能为空")
		}
		company.Name = *params.Name
	}
	if params.TaxID != nil {
		company.TaxID = *params.TaxID
	}
	if params.Email != nil {
		company.Email = *params.Email
	}
	if params.Address != nil {
		company.Address = *params.Address
	}
	if params.City != nil {
		company.City = *params.City
	}
	if params.PostalCode != nil {
		company.PostalCode = *params.PostalCode
	}
	if params.Website != nil {
		company.Website = *params.Website
	}
	if params.IsIssuer != nil {
		company.IsIssuer = *params.IsIssuer
	}

	if params.IsIssuer != nil && *params.IsIssuer {
		err = s.saveIssuer(tenantID, company.ID, func(tx *gorm.DB) error {
			return tx.Save(company).Error
		})
	} else {
		err = s.db.Save(company).Error
	}
	if err != nil {
		return nil, err
	}

	return company, nil
}

// saveIssuer 在同一事务内先批量清除该租户其他公司的开票方标志，再执行写入。
// 两个并发请求同时设置开票方时，各自的清除都可能扫不到对方未提交的行，
// 此时靠 companies 上的部分唯一索引（tenant_id，仅覆盖 is_issuer 行）兜底：
// 撞到索引的事务整体回滚并重试一次，重试的清除会扫掉先提交者，后写者生效
func (s *CompanyService) saveIssuer(tenantID string, excludeID uint, write func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			query := tx.Model(&models.Company{}).
				Where("tenant_id = ? AND is_issuer = ?", tenantID, true)
			if excludeID != 0 {
				query = query.Where("id <> ?", excludeID)
			}
			if err := query.Update("is_issuer", false).Error; err != nil {
				return err
			}
			return write(tx)
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return apperrors.NewConflict("开票方设置冲突，请重试")
}

// Delete 删除公司。仍有发票引用该公司时拒绝删除，避免产生悬挂引用
func (s *CompanyService) Delete(tenantID string, id uint) error {
	company, err := s.getOwned(tenantID, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Invoice{}).
		Where("tenant_id = ? AND company_id = ?", tenantID, company.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("该公司存在关联发票，无法删除")
	}

	return s.db.Delete(&models.Company{}, company.ID).Error
}

// GetByID 根据ID获取公司
func (s *CompanyService) GetByID(tenantID string, id uint) (*models.Company, error) {
	return s.getOwned(tenantID, id)
}

// List 获取租户的全部公司（按创建时间降序）
func (s *CompanyService) List(tenantID string) ([]*models.Company, error) {
	var companies []*models.Company
	err := s.db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Find(&companies).Error
	return companies, err
}

// GetIssuer 获取租户的开票方公司，不存在时返回nil（不是错误）
func (s *CompanyService) GetIssuer(tenantID string) (*models.Company, error) {
	var company models.Company
	err := s.db.Where("tenant_id = ? AND is_issuer = ?", tenantID, true).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// getOwned 读取并校验归属：记录不存在返回NotFound，跨租户访问返回Forbidden
func (s *CompanyService) getOwned(tenantID string, id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.First(&company, id).Error; err != nil {
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

package models

// Company 公司模型 - 贫血模型，只包含数据结构。
// 同一租户下最多只有一家公司 is_issuer = true（开票方公司），
// 由 tenant_id 上的部分唯一索引（仅覆盖 is_issuer 行）在存储层兜底
type Company struct {
	BaseModel
	TenantID   string `json:"tenant_id" gorm:"not null;size:64;index;index:uniq_company_tenant_issuer,unique,where:is_issuer = true"`
	Name       string `json:"name" gorm:"not null;size:200"`
	TaxID      string `json:"tax_id" gorm:"size:50"`
	Email      string `json:"email" gorm:"size:100"`
	Address    string `json:"address" gorm:"size:200"`
	City       string `json:"city" gorm:"size:100"`
	PostalCode string `json:"postal_code" gorm:"size:20"`
	Website    string `json:"website" gorm:"size:200"`
	IsIssuer   bool   `json:"is_issuer" gorm:"default:false;index"`
}

// TableName 表名
func (c *Company) TableName() string {
	return "companies"
}

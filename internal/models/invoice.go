package models

import (
	"time"
)

// Invoice 发票模型。
// 发票号在租户内唯一；三个状态时间戳各自只在对应流转时写入一次，
// 写入后不再变更
type Invoice struct {
	BaseModel
	TenantID      string     `json:"tenant_id" gorm:"not null;size:64;index;uniqueIndex:idx_tenant_invoice_number"`
	CompanyID     uint       `json:"company_id" gorm:"not null;index"`
	InvoiceNumber string     `json:"invoice_number" gorm:"not null;size:100;uniqueIndex:idx_tenant_invoice_number"`
	Status        string     `json:"status" gorm:"not null;default:'draft';size:20;index"`
	Currency      string     `json:"currency" gorm:"not null;size:3"`
	Total         float64    `json:"total" gorm:"not null;default:0"`
	FinalizedAt   *time.Time `json:"finalized_at"`
	PaidAt        *time.Time `json:"paid_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
}

// TableName 表名
func (i *Invoice) TableName() string {
	return "invoices"
}

// 发票状态常量
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusFinalized = "finalized"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// IsDraft 是否为草稿状态（唯一可自由编辑的状态）
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// IsTerminal 是否为终态（paid/cancelled不允许任何流转）
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled
}

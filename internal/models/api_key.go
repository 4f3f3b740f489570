package models

// APIKey API密钥模型 - 只保存SHA-256摘要，原始密钥签发后不落库。
// 每个租户同一时刻只保留一条记录（创建即替换，而非追加）
type APIKey struct {
	BaseModel
	TenantID string `json:"tenant_id" gorm:"not null;size:64;index"`
	KeyHash  string `json:"-" gorm:"not null;size:64;uniqueIndex"`
	Revoked  bool   `json:"revoked" gorm:"default:false"`
}

// TableName 表名
func (k *APIKey) TableName() string {
	return "api_keys"
}

// IsActive 密钥是否可用
func (k *APIKey) IsActive() bool {
	return !k.Revoked
}

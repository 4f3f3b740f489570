package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"factura/internal/models"
	"factura/pkg/cache"
	apperrors "factura/pkg/errors"
	"factura/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerifyCache 验证缓存的最小接口，生产实现是 *cache.RedisCache
type VerifyCache interface {
	Get(ctx context.Context, digest string) (string, error)
	Set(ctx context.Context, digest, tenantID string) error
	Delete(ctx context.Context, digest string) error
}

// replayPurgeDelay 二次清除的延迟。
// 一个在替换/吊销提交前读到旧行的Verify，可能在清除之后才把旧摘要写回缓存；
// 延迟二次清除把这类残留的有效窗口从整个缓存TTL压缩到本延迟
var replayPurgeDelay = 3 * time.Second

// APIKeyService API密钥服务。
// 只持久化SHA-256摘要，验证按摘要精确匹配；
// cache为可选的验证缓存，为nil时全部查询走数据库
type APIKeyService struct {
	db    *gorm.DB
	cache VerifyCache
}

// NewAPIKeyService 创建API密钥服务实例
func NewAPIKeyService(db *gorm.DB, redisCache *cache.RedisCache) *APIKeyService {
	s := &APIKeyService{db: db}
	if redisCache != nil {
		s.cache = redisCache
	}
	return s
}

// Issue 为租户签发API密钥，返回原始密钥（仅此一次）。
// 该租户已有密钥时覆盖其摘要并清除吊销标志（替换而非追加）。
// 旧密钥自替换起立即失效；极端时序下被旧摘要回写的缓存条目
// 最多再存活 replayPurgeDelay，由二次清除兜底
func (s *APIKeyService) Issue(tenantID string) (string, error) {
	if tenantID == "" {
		return "", apperrors.NewUnauthorized("缺少租户身份")
	}

	rawKey := uuid.NewString()
	keyHash := hashKey(rawKey)

	var oldHash string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.APIKey
		err := tx.Where("tenant_id = ?", tenantID).First(&existing).Error
		switch {
		case err == nil:
			oldHash = existing.KeyHash
			return tx.Model(&existing).Updates(map[string]interface{}{
				"key_hash": keyHash,
				"revoked":  false,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.APIKey{
				TenantID: tenantID,
				KeyHash:  keyHash,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return "", err
	}

	// 清除旧摘要的缓存条目，保证被替换的密钥立即停止验证通过
	s.purgeCache(oldHash)

	return rawKey, nil
}

// Verify 验证原始密钥，返回其租户标识。
// 无匹配或已吊销返回空字符串，这是正常结果而非错误
func (s *APIKeyService) Verify(rawKey string) (string, error) {
	if rawKey == "" {
		return "", nil
	}
	keyHash := hashKey(rawKey)

	// 先查缓存，缓存异常时直接回源数据库
	if s.cache != nil {
		tenantID, err := s.cache.Get(context.Background(), keyHash)
		if err != nil {
			logger.GetLogger().Warnf("API密钥缓存查询失败: %v", err)
		} else if tenantID != "" {
			return tenantID, nil
		}
	}

	var key models.APIKey
	err := s.db.Where("key_hash = ?", keyHash).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if key.Revoked {
		return "", nil
	}

	// 只缓存验证通过的结果
	if s.cache != nil {
		if err := s.cache.Set(context.Background(), keyHash, key.TenantID); err != nil {
			logger.GetLogger().Warnf("API密钥缓存写入失败: %v", err)
		}
	}

	return key.TenantID, nil
}

// Revoke 吊销租户当前的API密钥
func (s *APIKeyService) Revoke(tenantID string) error {
	var key models.APIKey
	err := s.db.Where("tenant_id = ?", tenantID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFound("该租户尚未创建API密钥")
	}
	if err != nil {
		return err
	}

	if err := s.db.Model(&key).Update("revoked", true).Error; err != nil {
		return err
	}

	s.purgeCache(key.KeyHash)
	return nil
}

// GetByTenant 获取租户的密钥记录（元数据，不含摘要），不存在时返回nil
func (s *APIKeyService) GetByTenant(tenantID string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.Where("tenant_id = ?", tenantID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// purgeCache 删除摘要对应的缓存条目：立即清一次，
// 再隔 replayPurgeDelay 清一次，兜住提交前读到旧行的Verify的延迟回写
func (s *APIKeyService) purgeCache(keyHash string) {
	if s.cache == nil || keyHash == "" {
		return
	}
	if err := s.cache.Delete(context.Background(), keyHash); err != nil {
		logger.GetLogger().Warnf("API密钥缓存清理失败: %v", err)
	}
	time.AfterFunc(replayPurgeDelay, func() {
		if err := s.cache.Delete(context.Background(), keyHash); err != nil {
			logger.GetLogger().Warnf("API密钥缓存清理失败: %v", err)
		}
	})
}

// hashKey 计算原始密钥的SHA-256十六进制摘要
func hashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

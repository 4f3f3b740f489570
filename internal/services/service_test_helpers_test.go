package services

import (
	"testing"

	"factura/internal/models"
	apperrors "factura/pkg/errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 内存数据库（单连接，避免内存库在连接池下互不可见）
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Company{}, &models.Invoice{}, &models.APIKey{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// createTestCompany 创建测试公司
func createTestCompany(t *testing.T, db *gorm.DB, tenantID, name string, isIssuer bool) *models.Company {
	t.Helper()

	company := &models.Company{
		Name:       name,
		TaxID:      "123 456 789",
		Email:      name + "@example.com",
		Address:    "1 Main Street",
		City:       "Paris",
		PostalCode: "75001",
		IsIssuer:   isIssuer,
	}
	if err := NewCompanyService(db).Create(tenantID, company); err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// wantCode 断言错误携带预期的业务错误码
func wantCode(t *testing.T, err error, code int) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %d, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected error code %d, got %d (%v)", code, got, err)
	}
}

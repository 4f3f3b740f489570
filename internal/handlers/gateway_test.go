package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"factura/internal/middleware"
	"factura/internal/models"
	"factura/internal/services"
	apperrors "factura/pkg/errors"
	"factura/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type gatewayEnv struct {
	router     *gin.Engine
	keyService *services.APIKeyService
	companies  *services.CompanyService
}

// setupGateway 搭建带认证的测试路由（内存数据库，无缓存）
func setupGateway(t *testing.T) *gatewayEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

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

	invoiceService := services.NewInvoiceService(db)
	companyService := services.NewCompanyService(db)
	apiKeyService := services.NewAPIKeyService(db, nil)

	invoiceHandler := NewInvoiceHandler(invoiceService)
	companyHandler := NewCompanyHandler(companyService)
	authMiddleware := middleware.NewAuthMiddleware(apiKeyService)

	router := gin.New()

	session := router.Group("/api/v1")
	session.Use(authMiddleware.RequireLogin())
	{
		session.GET("/companies", companyHandler.GetAll)
	}

	ext := router.Group("/api/ext")
	ext.Use(authMiddleware.RequireAPIKey())
	{
		ext.POST("/invoices", invoiceHandler.Create)
		ext.GET("/invoices", invoiceHandler.GetAllExternal)
	}

	return &gatewayEnv{
		router:     router,
		keyService: apiKeyService,
		companies:  companyService,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doJSON 发起请求并解析统一返回格式
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *envelope {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 envelope, got %d: %s", w.Code, w.Body.String())
	}

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &resp
}

func TestGateway_APIKeyPath(t *testing.T) {
	env := setupGateway(t)

	company := &models.Company{Name: "Acme"}
	if err := env.companies.Create("tenant-a", company); err != nil {
		t.Fatalf("failed to create company: %v", err)
	}

	rawKey, err := env.keyService.Issue("tenant-a")
	if err != nil {
		t.Fatalf("failed to issue key: %v", err)
	}

	t.Run("Create Invoice With Valid Key", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodPost, "/api/ext/invoices", rawKey, gin.H{
			"company_id": company.ID,
			"currency":   "EUR",
			"total":      100,
		})
		if resp.Code != apperrors.CodeSuccess {
			t.Fatalf("expected success, got %d: %s", resp.Code, resp.Message)
		}

		var invoice models.Invoice
		if err := json.Unmarshal(resp.Data, &invoice); err != nil {
			t.Fatalf("failed to decode invoice: %v", err)
		}
		if invoice.TenantID != "tenant-a" {
			t.Errorf("expected invoice bound to key's tenant, got %q", invoice.TenantID)
		}
		if invoice.Status != models.InvoiceStatusDraft {
			t.Errorf("expected draft invoice, got %s", invoice.Status)
		}
	})

	t.Run("List Invoices With Valid Key", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodGet, "/api/ext/invoices", rawKey, nil)
		if resp.Code != apperrors.CodeSuccess {
			t.Fatalf("expected success, got %d: %s", resp.Code, resp.Message)
		}

		var invoices []models.Invoice
		if err := json.Unmarshal(resp.Data, &invoices); err != nil {
			t.Fatalf("failed to decode invoices: %v", err)
		}
		if len(invoices) != 1 {
			t.Errorf("expected 1 invoice, got %d", len(invoices))
		}
	})

	t.Run("Missing Key", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodGet, "/api/ext/invoices", "", nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %d", resp.Code)
		}
	})

	t.Run("Invalid Key", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodGet, "/api/ext/invoices", "wrong-key", nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %d", resp.Code)
		}
	})

	t.Run("Revoked Key", func(t *testing.T) {
		if err := env.keyService.Revoke("tenant-a"); err != nil {
			t.Fatalf("failed to revoke key: %v", err)
		}
		resp := doJSON(t, env.router, http.MethodGet, "/api/ext/invoices", rawKey, nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized after revocation, got %d", resp.Code)
		}
	})
}

func TestGateway_SessionPath(t *testing.T) {
	env := setupGateway(t)

	t.Run("Valid Token", func(t *testing.T) {
		token, err := jwt.GetJWTManager().GenerateToken("tenant-a", "user@example.com", "User")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		resp := doJSON(t, env.router, http.MethodGet, "/api/v1/companies", token, nil)
		if resp.Code != apperrors.CodeSuccess {
			t.Errorf("expected success, got %d: %s", resp.Code, resp.Message)
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodGet, "/api/v1/companies", "", nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %d", resp.Code)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		resp := doJSON(t, env.router, http.MethodGet, "/api/v1/companies", "not.a.jwt", nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %d", resp.Code)
		}
	})

	t.Run("API Key Rejected On Session Path", func(t *testing.T) {
		rawKey, err := env.keyService.Issue("tenant-a")
		if err != nil {
			t.Fatalf("failed to issue key: %v", err)
		}
		resp := doJSON(t, env.router, http.MethodGet, "/api/v1/companies", rawKey, nil)
		if resp.Code != apperrors.CodeUnauthorized {
			t.Errorf("expected unauthorized, got %d", resp.Code)
		}
	})
}

package middleware

import (
	"strings"

	"factura/internal/services"
	"factura/pkg/jwt"
	"factura/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 访问网关 - 把请求解析为租户身份。
// 会话路径验证JWT（由身份服务签发），程序化路径验证API密钥；
// 两者都把解析出的tenant_id写入上下文，业务逻辑只认显式身份
type AuthMiddleware struct {
	jwtManager    *jwt.JWTManager
	apiKeyService *services.APIKeyService
}

func NewAuthMiddleware(apiKeyService *services.APIKeyService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:    jwt.GetJWTManager(),
		apiKeyService: apiKeyService,
	}
}

// bearerToken 提取Bearer令牌，格式不符返回空字符串
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return authHeader[7:]
}

// RequireLogin 会话认证：验证Bearer JWT并注入租户身份
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.VerifyToken(token)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		c.Set("tenant_id", claims.TenantID())
		c.Set("claims", claims)

		c.Next()
	}
}

// RequireAPIKey 程序化认证：验证Bearer API密钥并注入租户身份。
// 无法解析出租户的请求在到达业务逻辑前就被拒绝
func (m *AuthMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawKey := bearerToken(c)
		if rawKey == "" {
			response.Unauthorized(c, "缺少API密钥")
			c.Abort()
			return
		}

		tenantID, err := m.apiKeyService.Verify(rawKey)
		if err != nil {
			response.ServerError(c, "密钥验证失败")
			c.Abort()
			return
		}
		if tenantID == "" {
			response.Unauthorized(c, "API密钥无效或已吊销")
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)

		c.Next()
	}
}

// TenantID 从上下文取出租户身份
func TenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

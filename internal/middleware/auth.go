package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"training-erp/internal/model"
	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

func cookieSettings() (http.SameSite, bool) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("RENDER") != "" {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite, secure := cookieSettings()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite, secure := cookieSettings()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// authenticate validates the JWT from the access_token cookie or the
// Authorization header and stores the requester's id and role on the
// context. It aborts the request on any failure.
func authenticate(c *gin.Context) (userRole string, ok bool) {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return "", false
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return "", false
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return "", false
	}

	claims, claimsOK := token.Claims.(jwt.MapClaims)
	if !claimsOK {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return "", false
	}

	role, roleOK := claims["role"].(string)
	if !roleOK {
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
		return "", false
	}

	c.Set("userID", claims["sub"])
	c.Set("userRole", role)
	return role, true
}

// RequireRole validates the JWT and checks the requester's role against the
// allowlist.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, ok := authenticate(c)
		if !ok {
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// --- Permission-based middleware ---

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

var (
	permCache    sync.Map // roleName -> permCacheEntry
	permCacheTTL = 5 * time.Minute
)

// permDB holds the database reference for permission queries — set via InitPermissionMiddleware
var permDB *gorm.DB

// InitPermissionMiddleware sets the DB reference for RequirePermission middleware
func InitPermissionMiddleware(db *gorm.DB) {
	permDB = db
}

// RequirePermission validates the JWT and checks that the requester's role
// carries every required permission code. SuperAdmin short-circuits the
// lookup: the seeder grants it every code anyway.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, ok := authenticate(c)
		if !ok {
			return
		}
		if userRole == model.RoleSuperAdmin {
			c.Next()
			return
		}

		userPerms, err := getPermissionsForRole(userRole)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}
		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// getPermissionsForRole returns cached or DB-fetched permission codes for a role name
func getPermissionsForRole(roleName string) ([]string, error) {
	if entry, ok := permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	if permDB == nil {
		return nil, fmt.Errorf("permission middleware not initialized")
	}

	// role → role_permissions → permissions
	var codes []string
	err := permDB.Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, roleName).Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}

	permCache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return codes, nil
}

// GetPermissionsForRoleFromDB exposes permission fetching for handlers (e.g., /me endpoint)
func GetPermissionsForRoleFromDB(roleName string) ([]string, error) {
	return getPermissionsForRole(roleName)
}

// ClearPermissionCache removes cached permissions for a specific role (or all roles if empty)
func ClearPermissionCache(roleName string) {
	if roleName == "" {
		permCache.Range(func(key, _ interface{}) bool {
			permCache.Delete(key)
			return true
		})
	} else {
		permCache.Delete(roleName)
	}
}

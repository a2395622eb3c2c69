package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth context keys
const (
	ActorKey      = "auth_actor"
	ClaimsKey     = "auth_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultAuthConfig returns default authentication middleware configuration
func DefaultAuthConfig(jwtService *auth.JWTService) AuthConfig {
	return AuthConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/api/v1/health",
		},
	}
}

// Auth creates authentication middleware with default configuration
func Auth(jwtService *auth.JWTService) gin.HandlerFunc {
	return AuthWithConfig(DefaultAuthConfig(jwtService))
}

// AuthWithConfig creates authentication middleware. Every request on a
// non-skipped path must carry a valid bearer token whose claims resolve to a
// tenant, user, and known role. There is no fallback identity.
func AuthWithConfig(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			rejectUnauthenticated(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			rejectUnauthenticated(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			rejectUnauthenticated(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			rejectUnauthenticated(c, cfg, err, "Token validation failed")
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			rejectUnauthenticated(c, cfg, err, "Token claims do not form a valid identity")
			return
		}

		c.Set(ActorKey, actor)
		c.Set(ClaimsKey, claims)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Authenticated request",
				zap.String("user_id", actor.UserID.String()),
				zap.String("tenant_id", actor.TenantID.String()),
				zap.String("role", string(actor.Role)),
			)
		}

		c.Next()
	}
}

// actorFromClaims builds the domain actor from validated token claims
func actorFromClaims(claims *auth.Claims) (identity.Actor, error) {
	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return identity.Actor{}, auth.ErrInvalidClaims
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return identity.Actor{}, auth.ErrInvalidClaims
	}
	return identity.NewActor(userID, tenantID, identity.Role(claims.Role))
}

// rejectUnauthenticated aborts the request with a 401 response
func rejectUnauthenticated(c *gin.Context, cfg AuthConfig, err error, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code := dto.ErrCodeUnauthorized
	responseMessage := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		responseMessage = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken):
		code = dto.ErrCodeTokenInvalid
		responseMessage = "Invalid token"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
		responseMessage = "Token is not yet valid"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, responseMessage, GetRequestID(c)))
}

// GetActor retrieves the authenticated actor from gin.Context
func GetActor(c *gin.Context) (identity.Actor, bool) {
	if value, exists := c.Get(ActorKey); exists {
		if actor, ok := value.(identity.Actor); ok {
			return actor, true
		}
	}
	return identity.Actor{}, false
}

// GetClaims retrieves the validated token claims from gin.Context
func GetClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(ClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

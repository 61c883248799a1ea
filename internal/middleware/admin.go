package middleware

import (
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminRequired guards status updates. A request passes with an
// X-Admin-Token matching ADMIN_TOKEN_HASH (bcrypt) or with a bearer JWT
// signed by JWT_SECRET whose role claim is "admin". With neither
// configured the guard is open.
func AdminRequired(cfg *config.Config) fiber.Handler {
	if !cfg.AdminGuardEnabled() {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	tokenHash := []byte(cfg.AdminTokenHash)
	var bearer fiber.Handler
	if cfg.JWTSecret != "" {
		bearer = jwtware.New(jwtware.Config{
			SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
			SuccessHandler: requireAdminRole,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized: invalid or expired token",
				})
			},
		})
	}

	return func(c *fiber.Ctx) error {
		if token := c.Get(AdminTokenHeader); token != "" && len(tokenHash) > 0 {
			if bcrypt.CompareHashAndPassword(tokenHash, []byte(token)) == nil {
				return c.Next()
			}
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		if bearer != nil && c.Get(fiber.HeaderAuthorization) != "" {
			return bearer(c)
		}

		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
}

func requireAdminRole(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid claims",
		})
	}

	if role, _ := claims["role"].(string); role == "admin" {
		return c.Next()
	}
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Admin access required",
	})
}

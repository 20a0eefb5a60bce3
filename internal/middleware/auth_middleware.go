package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-timeoff/internal/shared/apperror"
	"go-timeoff/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// AuthMiddleware verifies an HS256 bearer token (or the access_token cookie)
// and copies its claims onto the gin context. Tokens are issued elsewhere.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Token not found")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Abort(c, http.StatusUnauthorized, CodeTokenExpired, "Token has expired")
				return
			}
			response.Abort(c, http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, CodeInvalidToken, "Invalid token claims")
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Abort(c, http.StatusUnauthorized, CodeInvalidToken, "User ID not found in token")
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			response.Abort(c, http.StatusUnauthorized, CodeInvalidToken, "Company ID not found in token")
			return
		}

		employeeID, ok := claims["employee_id"].(string)
		if !ok || employeeID == "" {
			response.Abort(c, http.StatusUnauthorized, CodeInvalidToken, "Employee ID not found in token")
			return
		}

		role, _ := claims["role"].(string)

		c.Set(string(ContextUserID), userID)
		c.Set(string(ContextEmployeeID), employeeID)
		c.Set(string(ContextCompanyID), companyID)
		c.Set(string(ContextRole), role)

		c.Next()
	}
}

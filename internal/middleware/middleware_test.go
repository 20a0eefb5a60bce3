package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-timeoff/internal/domain"
	"go-timeoff/internal/middleware"
	"go-timeoff/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

const testSecret = "rahasia"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id":     "u-1",
		"employee_id": "e-1",
		"company_id":  "c-1",
		"role":        "EMPLOYEE",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	newRouter := func() *gin.Engine {
		r := gin.New()
		r.GET("/me", middleware.AuthMiddleware(testSecret), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"employee_id": c.GetString("employee_id"),
				"company_id":  c.GetString("company_id"),
				"role":        c.GetString("role"),
			})
		})
		return r
	}

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
		w := httptest.NewRecorder()

		newRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"employee_id":"e-1","company_id":"c-1","role":"EMPLOYEE"}`, w.Body.String())
	})

	t.Run("token from cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, validClaims())})
		w := httptest.NewRecorder()

		newRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()

		newRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, middleware.CodeTokenExpired, decode(t, w).Error.Code)
	})

	t.Run("missing company claim", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "company_id")
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()

		newRouter().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, middleware.CodeInvalidToken, decode(t, w).Error.Code)
	})
}

type fakeRBAC struct {
	EnforceFn func(req domain.EnforceRequest) (bool, error)
}

func (f *fakeRBAC) Enforce(req domain.EnforceRequest) (bool, error) {
	return f.EnforceFn(req)
}

func TestRBACAuthorize(t *testing.T) {
	newRouter := func(svc middleware.RBACService, role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("company_id", "c-1")
			c.Set("employee_id", "e-1")
			if role != "" {
				c.Set("role", role)
			}
		})
		r.POST("/leaves/:id/approve", middleware.RBACAuthorize(svc, "leave", "approve"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	t.Run("allowed", func(t *testing.T) {
		svc := &fakeRBAC{EnforceFn: func(req domain.EnforceRequest) (bool, error) {
			assert.Equal(t, "MANAGER", req.Role)
			assert.Equal(t, "leave", req.Resource)
			assert.Equal(t, "approve", req.Action)
			return true, nil
		}}
		w := httptest.NewRecorder()
		newRouter(svc, "MANAGER").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves/1/approve", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := &fakeRBAC{EnforceFn: func(domain.EnforceRequest) (bool, error) { return false, nil }}
		w := httptest.NewRecorder()
		newRouter(svc, "EMPLOYEE").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves/1/approve", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)
	})

	t.Run("enforcer error", func(t *testing.T) {
		svc := &fakeRBAC{EnforceFn: func(domain.EnforceRequest) (bool, error) { return false, errors.New("boom") }}
		w := httptest.NewRecorder()
		newRouter(svc, "EMPLOYEE").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves/1/approve", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing role", func(t *testing.T) {
		svc := &fakeRBAC{EnforceFn: func(domain.EnforceRequest) (bool, error) {
			t.Fatal("enforcer must not be called")
			return false, nil
		}}
		w := httptest.NewRecorder()
		newRouter(svc, "").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves/1/approve", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIdempotency(t *testing.T) {
	cacheKey := middleware.IdempotencyCacheKey("/leaves", "u-1", "key-1")
	lockKey := cacheKey + ":lock"

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set(middleware.IdempotencyHeader, "key-1")
		return req
	}

	t.Run("first request takes the lock", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)

		calls := 0
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("user_id", "u-1") })
		r.POST("/leaves", middleware.Idempotency(rdb), func(c *gin.Context) {
			calls++
			c.Status(http.StatusCreated)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, newRequest())

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent duplicate is rejected", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(false)

		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("user_id", "u-1") })
		r.POST("/leaves", middleware.Idempotency(rdb), func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, newRequest())

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PROCESSING", decode(t, w).Error.Code)
	})

	t.Run("completed request is replayed", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).SetVal(`{"status":201,"data":{"id":"leave-1"}}`)

		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("user_id", "u-1") })
		r.POST("/leaves", middleware.Idempotency(rdb), func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, newRequest())

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decode(t, w)
		assert.True(t, env.Ok)
		assert.JSONEq(t, `{"id":"leave-1"}`, string(env.Data))
	})

	t.Run("no header passes through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()

		r := gin.New()
		r.POST("/leaves", middleware.Idempotency(rdb), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRateLimitByUser(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u-1") })
	r.GET("/leaves", middleware.RateLimitByUser(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/leaves", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/leaves", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decode(t, second).Error.Code)
}

func TestRBACFlag(t *testing.T) {
	svc := &fakeRBAC{EnforceFn: func(req domain.EnforceRequest) (bool, error) {
		return req.Role == "MANAGER", nil
	}}

	for role, want := range map[string]bool{"MANAGER": true, "EMPLOYEE": false} {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("role", role) })
		var got bool
		r.GET("/leaves", middleware.RBACFlag(svc, "leave", "approve", "can_manage"), func(c *gin.Context) {
			got = c.GetBool("can_manage")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaves", nil))

		assert.Equal(t, http.StatusOK, w.Code, role)
		assert.Equal(t, want, got, role)
	}
}

func TestContextLogger_DecoratesRequestContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("employee_id", "emp-1")
		c.Set("company_id", "company-1")
	}, middleware.ContextLogger(zap.New(core)))

	var md contextutil.Metadata
	r.GET("/leaves", func(c *gin.Context) {
		ctx := c.Request.Context()
		md = contextutil.ExtractMetadata(ctx)
		contextutil.GetLogger(ctx, nil).Info("handled")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/leaves", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contextutil.Metadata{RequestID: "rid-1", UserID: "u-1", EmployeeID: "emp-1", CompanyID: "company-1"}, md)
	if assert.Equal(t, 1, logs.Len()) {
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "rid-1", fields["request_id"])
		assert.Equal(t, "emp-1", fields["employee_id"])
	}
}

func TestRateLimitByUser_SeparatesCompanies(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("company_id", c.GetHeader("X-Company"))
	})
	r.GET("/leaves", middleware.RateLimitByUser(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, company := range []string{"c-1", "c-2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/leaves", nil)
		req.Header.Set("X-Company", company)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, company)
	}
}

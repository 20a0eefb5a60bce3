package contextutil

import (
	"context"

	"go.uber.org/zap"
)

// contextKey adalah tipe privat agar tidak terjadi tabrakan key dengan library lain
type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	userIDKey     contextKey = "user_id"
	employeeIDKey contextKey = "employee_id"
	companyIDKey  contextKey = "company_id"
	loggerKey     contextKey = "logger"
)

func withString(ctx context.Context, key contextKey, v string) context.Context {
	return context.WithValue(ctx, key, v)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return withString(ctx, requestIDKey, rid)
}

func GetRequestID(ctx context.Context) string { return getString(ctx, requestIDKey) }

func WithUserID(ctx context.Context, uid string) context.Context {
	return withString(ctx, userIDKey, uid)
}

func GetUserID(ctx context.Context) string { return getString(ctx, userIDKey) }

func WithEmployeeID(ctx context.Context, eid string) context.Context {
	return withString(ctx, employeeIDKey, eid)
}

func GetEmployeeID(ctx context.Context) string { return getString(ctx, employeeIDKey) }

func WithCompanyID(ctx context.Context, cid string) context.Context {
	return withString(ctx, companyIDKey, cid)
}

func GetCompanyID(ctx context.Context) string { return getString(ctx, companyIDKey) }

// WithLogger memasukkan zap logger yang sudah di-decorate ke context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger mengambil logger dari context, fallback ke defaultLogger lalu Nop.
func GetLogger(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}

	if defaultLogger != nil {
		return defaultLogger
	}

	return zap.NewNop()
}

// Metadata menampung info tracing dasar
type Metadata struct {
	RequestID  string
	UserID     string
	EmployeeID string
	CompanyID  string
}

func ExtractMetadata(ctx context.Context) Metadata {
	return Metadata{
		RequestID:  GetRequestID(ctx),
		UserID:     GetUserID(ctx),
		EmployeeID: GetEmployeeID(ctx),
		CompanyID:  GetCompanyID(ctx),
	}
}

// Fields returns the non-empty metadata as zap fields.
func (m Metadata) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 4)
	for _, kv := range [...]struct{ k, v string }{
		{"request_id", m.RequestID},
		{"user_id", m.UserID},
		{"employee_id", m.EmployeeID},
		{"company_id", m.CompanyID},
	} {
		if kv.v != "" {
			fields = append(fields, zap.String(kv.k, kv.v))
		}
	}
	return fields
}

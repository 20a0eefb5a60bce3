package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	balanceerrors "go-timeoff/internal/balance/errors"
	"go-timeoff/internal/leavepolicy"
	"go-timeoff/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	CacheKeyPrefix = "leave:balance:"
	cacheTTL       = 1 * time.Hour
)

func GetCacheKey(companyID, employeeID string) string {
	return CacheKeyPrefix + companyID + ":" + employeeID
}

type Service interface {
	Get(ctx context.Context, companyID, employeeID string) (BalanceResponse, error)
	Seed(ctx context.Context, companyID, employeeID string) (BalanceResponse, error)
	DeductTx(ctx context.Context, tx *sql.Tx, companyID, employeeID string, leaveType leavepolicy.LeaveType, days int) error
	Invalidate(ctx context.Context, companyID, employeeID string)
}

type service struct {
	repo     Repository
	rdb      *redis.Client
	sf       *singleflight.Group
	defaults leavepolicy.Balance
	logger   *zap.Logger
}

// NewService builds the balance service. rdb may be nil, in which case every
// read goes to the repository.
func NewService(repo Repository, rdb *redis.Client, defaults leavepolicy.Balance, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{
		repo:     repo,
		rdb:      rdb,
		sf:       &singleflight.Group{},
		defaults: defaults,
		logger:   l,
	}
}

func (s *service) Get(ctx context.Context, companyID, employeeID string) (BalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	cacheKey := GetCacheKey(companyID, employeeID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// singleflight: form dibuka berkali-kali untuk employee yang sama
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		b, err := s.repo.FindByEmployee(ctx, companyID, employeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, balanceerrors.ErrBalanceNotFound
			}
			return nil, err
		}

		resp := mapToResponse(*b)
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, jsonData, cacheTTL).Err(); err != nil {
					s.logger.Warn("cache leave balance failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("get leave balance failed",
			zap.String("company_id", companyID),
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return BalanceResponse{}, err
	}

	return v.(BalanceResponse), nil
}

func (s *service) Seed(ctx context.Context, companyID, employeeID string) (BalanceResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}

	b := &LeaveBalance{
		ID:               uuid.New(),
		CompanyID:        companyUUID,
		EmployeeID:       employeeUUID,
		VacationDaysLeft: s.defaults.VacationDaysLeft,
		SickDaysLeft:     s.defaults.SickDaysLeft,
		PersonalDaysLeft: s.defaults.PersonalDaysLeft,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if isUniqueBalanceViolation(err) {
			return BalanceResponse{}, balanceerrors.ErrBalanceAlreadyExists
		}
		s.logger.Error("seed leave balance failed", zap.String("employee_id", employeeID), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.Invalidate(ctx, companyID, employeeID)
	s.logger.Info("seed leave balance success",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
	)
	return mapToResponse(*b), nil
}

// DeductTx must run inside the approving transaction. The cache is not
// touched here; call Invalidate after commit.
func (s *service) DeductTx(ctx context.Context, tx *sql.Tx, companyID, employeeID string, leaveType leavepolicy.LeaveType, days int) error {
	if !leaveType.Valid() {
		return balanceerrors.ErrUnknownLeaveType
	}
	affected, err := s.repo.WithTx(tx).Deduct(ctx, companyID, employeeID, leaveType, days)
	if err != nil {
		s.logger.Error("deduct leave balance failed",
			zap.String("employee_id", employeeID),
			zap.String("leave_type", string(leaveType)),
			zap.Error(err),
		)
		return err
	}
	if affected == 0 {
		return balanceerrors.ErrBalanceNotFound
	}
	return nil
}

func (s *service) Invalidate(ctx context.Context, companyID, employeeID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetCacheKey(companyID, employeeID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate leave balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func isUniqueBalanceViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_leave_balance_employee"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_leave_balance_employee")
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		EmployeeID: b.EmployeeID.String(),
		Balance:    b.Policy(),
	}
}

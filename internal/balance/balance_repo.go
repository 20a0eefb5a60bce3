package balance

import (
	"context"
	"database/sql"

	"go-timeoff/internal/leavepolicy"
	"go-timeoff/internal/tenant"

	"gorm.io/gorm"
)

var balanceColumns = map[leavepolicy.LeaveType]string{
	leavepolicy.LeaveTypeVacation: "vacation_days_left",
	leavepolicy.LeaveTypeSick:     "sick_days_left",
	leavepolicy.LeaveTypePersonal: "personal_days_left",
}

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByEmployee(ctx context.Context, companyID, employeeID string) (*LeaveBalance, error)
	Create(ctx context.Context, b *LeaveBalance) error
	Deduct(ctx context.Context, companyID, employeeID string, leaveType leavepolicy.LeaveType, days int) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) FindByEmployee(ctx context.Context, companyID, employeeID string) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Create(b).Error
}

// Deduct subtracts days from one balance column and returns the rows touched.
// Balances may go negative; approval is the authority, not the projection.
func (r *repository) Deduct(ctx context.Context, companyID, employeeID string, leaveType leavepolicy.LeaveType, days int) (int64, error) {
	column, ok := balanceColumns[leaveType]
	if !ok {
		return 0, gorm.ErrInvalidField
	}
	res := r.conn(ctx).
		Model(&LeaveBalance{}).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Update(column, gorm.Expr(column+" - ?", days))
	return res.RowsAffected, res.Error
}

package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-timeoff/internal/balance"
	balanceerrors "go-timeoff/internal/balance/errors"
	"go-timeoff/internal/events"
	leaveerrors "go-timeoff/internal/leave/errors"
	"go-timeoff/internal/leavepolicy"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/shared/contextutil"
	"go-timeoff/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is the authenticated caller. CanManage is true for roles that may
// approve, and therefore see and act on other employees' requests.
type Actor struct {
	EmployeeID string
	CanManage  bool
}

func (a Actor) canAccess(employeeID string) bool {
	return a.CanManage || a.EmployeeID == employeeID
}

type Service interface {
	Create(ctx context.Context, companyID string, actor Actor, req CreateLeaveRequest) (LeaveResponse, error)
	Preview(ctx context.Context, companyID string, actor Actor, req PreviewLeaveRequest) (PreviewResponse, error)
	GetAll(ctx context.Context, companyID string, actor Actor, filter ListFilter) ([]LeaveResponse, error)
	GetByID(ctx context.Context, companyID string, actor Actor, id string) (LeaveResponse, error)
	GetRecentByEmployee(ctx context.Context, companyID string, actor Actor, employeeID string) ([]LeaveResponse, error)
	Approve(ctx context.Context, companyID string, actor Actor, id string) (LeaveResponse, error)
	Reject(ctx context.Context, companyID string, actor Actor, id, rejectionReason string) (LeaveResponse, error)
	Slip(ctx context.Context, companyID string, actor Actor, id string) ([]byte, string, error)
}

type Options struct {
	// Location decides what "today" is for the request-date policy.
	Location *time.Location
	// RecentLimit caps GetRecentByEmployee.
	RecentLimit int
	Now         func() time.Time
}

type service struct {
	db       *sql.DB
	repo     Repository
	counter  counter.Repository
	outbox   kafka.OutboxRepository
	balances balance.Service
	loc      *time.Location
	limit    int
	now      func() time.Time
	logger   *zap.Logger
}

// NewService builds the leave service. outboxRepo may be nil, in which case
// no events are queued.
func NewService(
	db *sql.DB,
	repo Repository,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	balances balance.Service,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		db:       db,
		repo:     repo,
		counter:  counterRepo,
		outbox:   outboxRepo,
		balances: balances,
		loc:      opts.Location,
		limit:    opts.RecentLimit,
		now:      opts.Now,
		logger:   l,
	}
}

func (s *service) today() time.Time {
	return leavepolicy.Midnight(s.now().In(s.loc))
}

func (s *service) Create(ctx context.Context, companyID string, actor Actor, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	rid := contextutil.GetRequestID(ctx)
	log.Debug("create leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	actorUUID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if !actor.canAccess(req.EmployeeID) {
		return LeaveResponse{}, leaveerrors.ErrCannotActForOthers
	}

	leaveType, startDate, endDate, err := s.validatePolicy(req.LeaveType, req.StartDate, req.EndDate)
	if err != nil {
		log.Warn("create leave policy rejected", zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	belongs, err := qtx.EmployeeBelongsToCompany(ctx, companyID, req.EmployeeID)
	if err != nil {
		log.Error("create leave employee company check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !belongs {
		return LeaveResponse{}, leaveerrors.ErrEmployeeNotInCompany
	}

	overlap, err := qtx.HasOverlappingPeriod(ctx, companyID, req.EmployeeID, startDate, endDate)
	if err != nil {
		log.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("create leave overlap detected",
			zap.String("employee_id", req.EmployeeID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	seq, err := s.counter.GetNextValue(ctx, companyID, counter.TypeLeaveRequest)
	if err != nil {
		log.Error("create leave request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	totalDays := leavepolicy.InclusiveDaySpan(endDate, startDate)
	l := &Leave{
		ID:            uuid.New(),
		CompanyID:     companyUUID,
		EmployeeID:    employeeUUID,
		RequestNumber: counter.FormatLeaveRequestNumber(seq),
		LeaveType:     leaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		TotalDays:     totalDays,
		LeaveAmount:   leavepolicy.LeaveAmount(totalDays),
		Reason:        strings.TrimSpace(req.Reason),
		Status:        leavepolicy.StatusPending,
		CreatedBy:     actorUUID,
		CreatedAt:     s.now().UTC(),
	}

	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.queueEvent(ctx, tx, l.ID.String(), events.EventLeaveRequested, events.LeaveRequestedTopic, events.LeaveRequestedEvent{
		EventType:     events.EventLeaveRequested,
		RequestID:     rid,
		LeaveID:       l.ID.String(),
		RequestNumber: l.RequestNumber,
		CompanyID:     companyID,
		EmployeeID:    req.EmployeeID,
		LeaveType:     string(l.LeaveType),
		StartDate:     l.StartDate.Format(leavepolicy.DateLayout),
		EndDate:       l.EndDate.Format(leavepolicy.DateLayout),
		TotalDays:     l.TotalDays,
		LeaveAmount:   l.LeaveAmount,
		OccurredAt:    s.now().UTC(),
	}); err != nil {
		log.Error("create leave outbox persist failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	log.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("employee_id", req.EmployeeID),
	)

	return mapToResponse(*l), nil
}

// validatePolicy parses the draft and applies the request-date rules against
// today in the service location.
func (s *service) validatePolicy(rawType, rawStart, rawEnd string) (leavepolicy.LeaveType, time.Time, time.Time, error) {
	leaveType, err := leavepolicy.ParseLeaveType(rawType)
	if err != nil {
		return "", time.Time{}, time.Time{}, leaveerrors.PolicyViolation(&leavepolicy.ValidationMessage{
			Field: leavepolicy.FieldLeaveType, Message: leavepolicy.MessageUnknownType,
		})
	}

	startDate, startMsg := parseDateField(leavepolicy.FieldStartDate, rawStart)
	endDate, endMsg := parseDateField(leavepolicy.FieldEndDate, rawEnd)
	if startMsg != nil || endMsg != nil {
		return "", time.Time{}, time.Time{}, leaveerrors.PolicyViolation(startMsg, endMsg)
	}

	startMsg, endMsg = leavepolicy.ValidateRange(leaveType, startDate, endDate, s.today())
	if startMsg != nil || endMsg != nil {
		return "", time.Time{}, time.Time{}, leaveerrors.PolicyViolation(startMsg, endMsg)
	}
	return leaveType, startDate, endDate, nil
}

// parseDateField reports a missing or malformed date as a message on field.
func parseDateField(field, v string) (time.Time, *leavepolicy.ValidationMessage) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, &leavepolicy.ValidationMessage{Field: field, Message: leavepolicy.MessageMissingDate}
	}
	t, err := leavepolicy.ParseDate(v)
	if err != nil {
		return time.Time{}, &leavepolicy.ValidationMessage{Field: field, Message: leavepolicy.MessageInvalidDate}
	}
	return t, nil
}

func (s *service) Preview(ctx context.Context, companyID string, actor Actor, req PreviewLeaveRequest) (PreviewResponse, error) {
	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return PreviewResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	if !actor.canAccess(req.EmployeeID) {
		return PreviewResponse{}, leaveerrors.ErrCannotActForOthers
	}

	current, err := s.balances.Get(ctx, companyID, req.EmployeeID)
	if err != nil {
		return PreviewResponse{}, err
	}

	resp := PreviewResponse{}
	leaveType, typeErr := leavepolicy.ParseLeaveType(req.LeaveType)

	var startDate, endDate time.Time
	if strings.TrimSpace(req.StartDate) != "" {
		startDate, resp.StartDateMessage = parseDateField(leavepolicy.FieldStartDate, req.StartDate)
	}
	if strings.TrimSpace(req.EndDate) != "" {
		endDate, resp.EndDateMessage = parseDateField(leavepolicy.FieldEndDate, req.EndDate)
	}

	if typeErr != nil {
		resp.LeaveTypeMessage = &leavepolicy.ValidationMessage{Field: leavepolicy.FieldLeaveType, Message: leavepolicy.MessageUnknownType}
	} else if !startDate.IsZero() && resp.StartDateMessage == nil {
		resp.StartDateMessage = leavepolicy.ValidateStartDate(leaveType, startDate, s.today())
	}
	if !startDate.IsZero() && !endDate.IsZero() && resp.EndDateMessage == nil {
		resp.EndDateMessage = leavepolicy.ValidateEndDate(startDate, endDate)
	}

	if !startDate.IsZero() && !endDate.IsZero() {
		if span := leavepolicy.InclusiveDaySpan(endDate, startDate); span > 0 {
			resp.TotalDays = span
			resp.LeaveAmount = leavepolicy.LeaveAmount(span)
		}
	}
	resp.Balances = leavepolicy.ProjectAll(leaveType, current.Balance, startDate, endDate)
	resp.Valid = resp.LeaveTypeMessage == nil && resp.StartDateMessage == nil && resp.EndDateMessage == nil &&
		!startDate.IsZero() && !endDate.IsZero()

	return resp, nil
}

func (s *service) GetAll(ctx context.Context, companyID string, actor Actor, filter ListFilter) ([]LeaveResponse, error) {
	rf := RepoFilter{
		EmployeeID: filter.EmployeeID,
		Status:     leavepolicy.LeaveStatus(filter.Status),
	}
	if !actor.CanManage {
		// karyawan biasa hanya melihat pengajuannya sendiri
		rf.EmployeeID = actor.EmployeeID
	}

	leaves, err := s.repo.FindAllByCompany(ctx, companyID, rf)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetByID(ctx context.Context, companyID string, actor Actor, id string) (LeaveResponse, error) {
	l, err := s.find(ctx, companyID, actor, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) find(ctx context.Context, companyID string, actor Actor, id string) (*Leave, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrInvalidLeaveID
	}
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	// punya orang lain diperlakukan seperti tidak ada
	if !actor.canAccess(l.EmployeeID.String()) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	return l, nil
}

func (s *service) GetRecentByEmployee(ctx context.Context, companyID string, actor Actor, employeeID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	if !actor.canAccess(employeeID) {
		return nil, leaveerrors.ErrCannotActForOthers
	}

	leaves, err := s.repo.FindRecentByEmployee(ctx, companyID, employeeID, s.limit)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) Approve(ctx context.Context, companyID string, actor Actor, id string) (LeaveResponse, error) {
	return s.decide(ctx, companyID, actor, id, leavepolicy.StatusApproved, "")
}

func (s *service) Reject(ctx context.Context, companyID string, actor Actor, id, rejectionReason string) (LeaveResponse, error) {
	rejectionReason = strings.TrimSpace(rejectionReason)
	if rejectionReason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}
	return s.decide(ctx, companyID, actor, id, leavepolicy.StatusRejected, rejectionReason)
}

func isAllowedStatusTransition(current, target leavepolicy.LeaveStatus) bool {
	return current == leavepolicy.StatusPending &&
		(target == leavepolicy.StatusApproved || target == leavepolicy.StatusRejected)
}

func (s *service) decide(ctx context.Context, companyID string, actor Actor, id string, target leavepolicy.LeaveStatus, reason string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("decide leave requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("target_status", string(target)),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if !isAllowedStatusTransition(l.Status, target) {
		log.Warn("decide leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", string(l.Status)),
			zap.String("to_status", string(target)),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}
	if l.EmployeeID == actorUUID {
		return LeaveResponse{}, leaveerrors.ErrCannotDecideOwnLeave
	}

	if target == leavepolicy.StatusApproved {
		if err := s.balances.DeductTx(ctx, tx, companyID, l.EmployeeID.String(), l.LeaveType, l.TotalDays); err != nil {
			if errors.Is(err, balanceerrors.ErrBalanceNotFound) {
				log.Warn("approve leave without balance row", zap.String("employee_id", l.EmployeeID.String()))
			}
			return LeaveResponse{}, err
		}
	}

	now := s.now().UTC()
	l.Status = target
	l.DecidedBy = &actorUUID
	l.DecidedAt = &now
	if reason != "" {
		l.RejectionReason = &reason
	}

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("decide leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.queueEvent(ctx, tx, l.ID.String(), events.EventLeaveDecided, events.LeaveDecidedTopic, events.LeaveDecidedEvent{
		EventType:  events.EventLeaveDecided,
		RequestID:  contextutil.GetRequestID(ctx),
		LeaveID:    l.ID.String(),
		CompanyID:  companyID,
		EmployeeID: l.EmployeeID.String(),
		Status:     string(target),
		DecidedBy:  actor.EmployeeID,
		Reason:     reason,
		OccurredAt: now,
	}); err != nil {
		log.Error("decide leave outbox persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("decide leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if target == leavepolicy.StatusApproved {
		s.balances.Invalidate(ctx, companyID, l.EmployeeID.String())
	}
	log.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", string(target)),
	)
	return mapToResponse(*l), nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, aggregateID, eventType, topic string, payload any) error {
	if s.outbox == nil {
		return nil
	}
	event, err := kafka.NewOutboxEvent(contextutil.GetRequestID(ctx), events.AggregateLeave, aggregateID, eventType, topic, payload)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

func (s *service) Slip(ctx context.Context, companyID string, actor Actor, id string) ([]byte, string, error) {
	l, err := s.find(ctx, companyID, actor, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := renderSlip(*l)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("render leave slip failed", zap.String("leave_id", id), zap.Error(err))
		return nil, "", err
	}
	return pdf, l.RequestNumber + ".pdf", nil
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID.String(),
		RequestNumber: l.RequestNumber,
		CompanyID:     l.CompanyID.String(),
		EmployeeID:    l.EmployeeID.String(),
		LeaveType:     string(l.LeaveType),
		StartDate:     l.StartDate.Format(leavepolicy.DateLayout),
		EndDate:       l.EndDate.Format(leavepolicy.DateLayout),
		TotalDays:     l.TotalDays,
		LeaveAmount:   l.LeaveAmount,
		Reason:        l.Reason,
		Status:        string(l.Status),
		CreatedBy:     l.CreatedBy.String(),
		CreatedAt:     l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.UTC().Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

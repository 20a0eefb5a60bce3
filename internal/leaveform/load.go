package leaveform

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadEmployee makes employeeID the current employee and fetches its balance
// and recent requests concurrently. Either may finish first and each failure
// is kept on its own section of View; the returned error is the first one.
// A response that arrives after the current employee has changed is
// discarded and is not an error for this load.
func (f *Form) LoadEmployee(ctx context.Context, employeeID string) error {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.employeeID = employeeID
	f.balance = nil
	f.requests = nil
	f.balanceErr = nil
	f.requestsErr = nil
	f.mu.Unlock()

	log := f.logger.With(zap.String("employee_id", employeeID), zap.Uint64("generation", gen))

	// bukan WithContext: gagal di satu bagian tidak membatalkan bagian lain
	var g errgroup.Group

	g.Go(func() error {
		b, err := f.api.GetLeaveBalance(ctx, employeeID)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation != gen {
			log.Debug("discard stale leave balance")
			return nil
		}
		if err != nil {
			log.Warn("load leave balance failed", zap.Error(err))
			f.balanceErr = err
			return fmt.Errorf("load leave balance: %w", err)
		}
		f.balance = &b
		return nil
	})

	g.Go(func() error {
		reqs, err := f.api.GetRecentLeaveRequests(ctx, employeeID)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation != gen {
			log.Debug("discard stale leave requests")
			return nil
		}
		if err != nil {
			log.Warn("load leave requests failed", zap.Error(err))
			f.requestsErr = err
			return fmt.Errorf("load leave requests: %w", err)
		}
		f.requests = reqs
		return nil
	})

	return g.Wait()
}

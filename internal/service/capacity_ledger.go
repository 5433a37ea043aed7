package service

import (
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"

	"github.com/viva-esporte/arena-api/internal/models"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
)

type classCounterStore interface {
	Counters(ctx context.Context, classID string) (*models.ClassCounters, error)
	AdjustCounters(ctx context.Context, classID string, confirmedDelta, waitingDelta int) error
	RecountFromEnrollments(ctx context.Context, classID string) error
}

// CapacityLedger owns the cached enrolled/waiting counters of every class.
// All read-modify-write sequences against a class's counters must run
// inside WithClass so concurrent engine calls cannot lose updates.
type CapacityLedger struct {
	classes classCounterStore
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCapacityLedger constructs the ledger.
func NewCapacityLedger(classes classCounterStore, logger *zap.Logger) *CapacityLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityLedger{
		classes: classes,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (l *CapacityLedger) classLock(classID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[classID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[classID] = lock
	}
	return lock
}

// WithClass serializes fn against other counter mutations of the class.
func (l *CapacityLedger) WithClass(classID string, fn func() error) error {
	lock := l.classLock(classID)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

// IsFull reports whether every capacity-counted seat of the class is taken.
func (l *CapacityLedger) IsFull(ctx context.Context, classID string) (bool, error) {
	counters, err := l.classes.Counters(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class counters")
	}
	return counters.Full(), nil
}

// IncrementConfirmed adds one to the confirmed counter.
func (l *CapacityLedger) IncrementConfirmed(ctx context.Context, classID string) error {
	return l.adjust(ctx, classID, 1, 0)
}

// DecrementConfirmed removes one from the confirmed counter, floored at 0.
func (l *CapacityLedger) DecrementConfirmed(ctx context.Context, classID string) error {
	return l.adjust(ctx, classID, -1, 0)
}

// IncrementWaiting adds one to the waiting-list counter.
func (l *CapacityLedger) IncrementWaiting(ctx context.Context, classID string) error {
	return l.adjust(ctx, classID, 0, 1)
}

// DecrementWaiting removes one from the waiting-list counter, floored at 0.
func (l *CapacityLedger) DecrementWaiting(ctx context.Context, classID string) error {
	return l.adjust(ctx, classID, 0, -1)
}

func (l *CapacityLedger) adjust(ctx context.Context, classID string, confirmedDelta, waitingDelta int) error {
	if err := l.classes.AdjustCounters(ctx, classID, confirmedDelta, waitingDelta); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class counters")
	}
	return nil
}

// Reconcile rebuilds both counters from the enrollment rows. The cached
// counters are derived data and must always be recomputable from them.
func (l *CapacityLedger) Reconcile(ctx context.Context, classID string) error {
	return l.WithClass(classID, func() error {
		if err := l.classes.RecountFromEnrollments(ctx, classID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile class counters")
		}
		l.logger.Debug("class counters reconciled", zap.String("class_id", classID))
		return nil
	})
}

package presence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Directory resolves learner identities. Owned by the registration
// subsystem; the service only reads from it.
type Directory interface {
	ResolveByCode(ctx context.Context, code string) (*Learner, error)
	GetLearner(ctx context.Context, id string) (*Learner, error)
}

// RecordStore persists and retrieves scan records.
type RecordStore interface {
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	FindRecords(ctx context.Context, f Filter) ([]Record, error)
	FindByLearner(ctx context.Context, learnerID string) ([]Record, error)
}

// Clock supplies scan timestamps. Injected so tests can pin time.
type Clock func() time.Time

// Service coordinates scan intake and attendance queries. Authorization
// happens at the HTTP boundary; the service trusts its caller.
type Service struct {
	dir       Directory
	store     RecordStore
	boundary  Boundary
	clock     Clock
	opTimeout time.Duration
}

// NewService creates a service. A zero opTimeout disables the per-operation
// deadline; a nil clock defaults to UTC wall time.
func NewService(dir Directory, store RecordStore, boundary Boundary, clock Clock, opTimeout time.Duration) *Service {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{dir: dir, store: store, boundary: boundary, clock: clock, opTimeout: opTimeout}
}

// SubmitScan resolves a scanned code, classifies the scan against the
// active boundary, and persists exactly one record. Duplicate scans in
// rapid succession each produce their own record. Nothing is written when
// the code matches no learner.
func (s *Service) SubmitScan(ctx context.Context, code string) (Record, error) {
	if code == "" {
		return Record{}, fmt.Errorf("%w: empty scan code", ErrValidation)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	learner, err := s.dir.ResolveByCode(ctx, code)
	if err != nil {
		return Record{}, storeErr("resolve code", err)
	}
	if learner == nil {
		return Record{}, fmt.Errorf("%w: no learner with code %q", ErrNotFound, code)
	}

	now := s.clock()
	rec := Record{
		LearnerID: learner.ID,
		ScanTime:  now,
		Status:    Classify(now, s.boundary),
	}
	rec, err = s.store.InsertRecord(ctx, rec)
	if err != nil {
		return Record{}, storeErr("insert record", err)
	}

	rec.FirstName = learner.FirstName
	rec.LastName = learner.LastName
	rec.Code = learner.Code
	rec.Cohort = learner.Cohort
	return rec, nil
}

// ListPresences validates the filter and returns matching records, newest
// first. Read-only; no partial results on failure.
func (s *Service) ListPresences(ctx context.Context, f Filter) ([]Record, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%w: range start after end", ErrValidation)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	recs, err := s.store.FindRecords(ctx, f)
	if err != nil {
		return nil, storeErr("find records", err)
	}
	return recs, nil
}

// LearnerRecords returns one learner's full scan history, newest first.
func (s *Service) LearnerRecords(ctx context.Context, learnerID string) ([]Record, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.checkLearner(ctx, learnerID); err != nil {
		return nil, err
	}
	recs, err := s.store.FindByLearner(ctx, learnerID)
	if err != nil {
		return nil, storeErr("find by learner", err)
	}
	return recs, nil
}

// LearnerSummary counts a learner's records by status. The percentage is 0
// when the learner has no records at all.
func (s *Service) LearnerSummary(ctx context.Context, learnerID string) (Summary, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.checkLearner(ctx, learnerID); err != nil {
		return Summary{}, err
	}
	recs, err := s.store.FindByLearner(ctx, learnerID)
	if err != nil {
		return Summary{}, storeErr("find by learner", err)
	}

	sum := Summary{LearnerID: learnerID, Total: len(recs)}
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			sum.PresentCount++
		case StatusLate:
			sum.LateCount++
		case StatusAbsent:
			sum.AbsentCount++
		}
	}
	if sum.Total > 0 {
		sum.PresentPercentage = float64(sum.PresentCount) / float64(sum.Total) * 100
	}
	return sum, nil
}

func (s *Service) checkLearner(ctx context.Context, learnerID string) error {
	if learnerID == "" {
		return fmt.Errorf("%w: empty learner id", ErrValidation)
	}
	learner, err := s.dir.GetLearner(ctx, learnerID)
	if err != nil {
		return storeErr("get learner", err)
	}
	if learner == nil {
		return fmt.Errorf("%w: learner %s", ErrNotFound, learnerID)
	}
	return nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// storeErr classifies a store failure: deadline overruns surface as
// ErrTimeout so the caller can suggest a retry, everything else as
// ErrPersistence.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

package verify

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3leaps/appverify/internal/model"
)

// BatchResult pairs a request with its outcome. Err holds call errors such
// as a missing file; a mismatch is reported through Outcome.
type BatchResult struct {
	ID      string
	Request model.VerificationRequest
	Outcome model.VerificationOutcome
	Err     error
}

// Failure returns Err, or a *HashMismatchError for a Failed outcome.
func (r BatchResult) Failure() error {
	if r.Err != nil {
		return r.Err
	}
	name := r.Request.Filename
	if name == "" {
		name = filepath.Base(r.Request.Path)
	}
	return OutcomeErr(name, r.Outcome)
}

// VerifyAll verifies reqs with at most limit running at once (unbounded when
// limit <= 0). One item failing never stops its siblings. Results keep the
// order of reqs.
func (v *Verifier) VerifyAll(ctx context.Context, reqs []model.VerificationRequest, limit int) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range reqs {
		g.Go(func() error {
			id := uuid.NewString()
			item := *v
			item.logger = v.logger.With(zap.String("verification_id", id))

			outcome, err := item.Verify(ctx, reqs[i])
			results[i] = BatchResult{ID: id, Request: reqs[i], Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

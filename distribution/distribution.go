// Package distribution turns a list of committee ids into the current
// TOTP code of each committee, for a caller who is on every roster.
package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/totp"
)

// upper bound on concurrent secret lookups for a single request
const lookupConcurrency = 8

type NotFoundError struct {
	Id string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("committee %q not found", e.Id)
}

type ForbiddenError struct {
	Id   string
	Name string
}

func (e *ForbiddenError) Error() string {
	return "unauthorized: not a member of committee " + e.Name
}

// The subset of storage.Storage the service reads from.
type SecretStore interface {
	GetCommitteeSecret(ctx context.Context, id string) (*data.Committee, error)
}

type Result struct {
	// One code per requested id, in request order. Named after the
	// wire field.
	Secrets []string

	// End of the step every code in Secrets belongs to.
	EndTime time.Time
}

type Service struct {
	store SecretStore
	clock clockwork.Clock
}

func New(store SecretStore, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, clock: clock}
}

// Generate is all or nothing: an unknown id, or a single committee the
// caller isn't a member of, fails the whole batch before any code is
// generated. Duplicate ids are answered positionally.
func (s *Service) Generate(ctx context.Context, identity *portal.Identity, ids []string) (Result, error) {
	result, err := s.generate(ctx, identity, ids)
	requestsTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		codesIssued.Add(float64(len(result.Secrets)))
	}
	return result, err
}

func (s *Service) generate(ctx context.Context, identity *portal.Identity, ids []string) (Result, error) {
	if identity == nil {
		return Result{}, portal.ErrUnauthorized
	}

	committees, err := s.lookup(ctx, ids)
	if err != nil {
		return Result{}, err
	}

	for i, committee := range committees {
		if committee == nil {
			return Result{}, &NotFoundError{Id: ids[i]}
		}
	}

	memberId := identity.StableId()
	for _, committee := range committees {
		if !committee.HasMember(memberId) {
			return Result{}, &ForbiddenError{Id: committee.Id, Name: committee.Name}
		}
	}

	// Taken once so that every code, and the boundary reported with
	// them, belong to the same step.
	now := s.clock.Now()
	endTime := totp.EndTime(now)

	secrets := make([]string, len(committees))
	for i, committee := range committees {
		code, err := totp.Generate(committee.Secret, now)
		if err != nil {
			return Result{}, fmt.Errorf("distribution generate %s - %w", committee.Id, err)
		}
		secrets[i] = code
	}

	return Result{Secrets: secrets, EndTime: endTime}, nil
}

// lookup fetches every committee concurrently. The returned slice is
// indexed like ids; unknown committees are nil.
func (s *Service) lookup(ctx context.Context, ids []string) ([]*data.Committee, error) {
	committees := make([]*data.Committee, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			committee, err := s.store.GetCommitteeSecret(ctx, id)
			if err != nil {
				return fmt.Errorf("distribution lookup %s - %w", id, err)
			}
			committees[i] = committee
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return committees, nil
}

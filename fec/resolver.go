package fec

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capitoltrack/pvintel/data"
)

// CommitteeStore is the subset of store.Store the resolver needs — kept
// as an interface so tests can fake it without an on-disk database.
type CommitteeStore interface {
	GetFECMapping(ctx context.Context, politicianID string) (*data.FECMapping, error)
	GetFECCommittee(ctx context.Context, committeeID string) (*data.FECCommittee, error)
	UpsertFECMapping(ctx context.Context, m data.FECMapping, now time.Time) error
	UpsertFECCommittee(ctx context.Context, c data.FECCommittee) error
	GetPolitician(ctx context.Context, id string) (*data.Politician, error)
}

// CommitteeResolver answers "what committees does this politician's
// campaign operation run, classified by type" via a three-tier cache:
// in-process map, then the Store, then the FEC API — mirroring
// openfigi.Client's cache-then-network shape with one extra tier.
type CommitteeResolver struct {
	mu    sync.RWMutex
	cache map[string][]data.FECCommittee

	store  CommitteeStore
	client *Client
}

// NewCommitteeResolver builds a resolver. client may be nil if only
// cache/store tiers are needed (e.g. offline analytics).
func NewCommitteeResolver(store CommitteeStore, client *Client) *CommitteeResolver {
	return &CommitteeResolver{
		cache:  make(map[string][]data.FECCommittee),
		store:  store,
		client: client,
	}
}

// Resolve returns politicianID's FEC committees, each already classified.
func (r *CommitteeResolver) Resolve(ctx context.Context, politicianID string) ([]data.FECCommittee, error) {
	r.mu.RLock()
	if committees, ok := r.cache[politicianID]; ok {
		r.mu.RUnlock()
		return committees, nil
	}
	r.mu.RUnlock()

	mapping, err := r.store.GetFECMapping(ctx, politicianID)
	if err != nil {
		return nil, fmt.Errorf("fec: resolve committees for %s: %w", politicianID, err)
	}

	if mapping != nil && len(mapping.CommitteeIDs) > 0 {
		committees, err := r.loadFromStore(ctx, mapping.CommitteeIDs)
		if err != nil {
			return nil, err
		}
		r.fillCache(politicianID, committees)
		return committees, nil
	}

	committees, err := r.fetchFromAPI(ctx, politicianID, mapping)
	if err != nil {
		return nil, err
	}
	r.fillCache(politicianID, committees)
	return committees, nil
}

func (r *CommitteeResolver) loadFromStore(ctx context.Context, committeeIDs []string) ([]data.FECCommittee, error) {
	committees := make([]data.FECCommittee, 0, len(committeeIDs))
	for _, id := range committeeIDs {
		c, err := r.store.GetFECCommittee(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fec: load committee %s: %w", id, err)
		}
		if c != nil {
			committees = append(committees, *c)
		}
	}
	return committees, nil
}

// fetchFromAPI is tier 3: fetch committees for each known candidate id, or
// — absent any candidate ids — name-search and take the first hit. Empty
// results are persisted too, so a politician confirmed to have no FEC
// presence is never re-queried.
func (r *CommitteeResolver) fetchFromAPI(ctx context.Context, politicianID string, mapping *data.FECMapping) ([]data.FECCommittee, error) {
	if r.client == nil {
		return nil, nil
	}

	var candidateIDs []string
	if mapping != nil {
		candidateIDs = mapping.CandidateIDs
	}

	if len(candidateIDs) == 0 {
		politician, err := r.store.GetPolitician(ctx, politicianID)
		if err != nil {
			return nil, fmt.Errorf("fec: load politician %s: %w", politicianID, err)
		}
		if politician == nil {
			return nil, nil
		}

		candidates, err := r.client.SearchCandidates(ctx, fmt.Sprintf("%s %s", politician.FirstName, politician.LastName), politician.State)
		if err != nil {
			return nil, fmt.Errorf("fec: search candidates for %s: %w", politicianID, err)
		}
		if len(candidates) > 0 {
			candidateIDs = []string{candidates[0].CandidateID}
		}
	}

	var apiCommittees []Committee
	for _, candidateID := range candidateIDs {
		committees, err := r.client.CandidateCommittees(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("fec: candidate committees for %s: %w", candidateID, err)
		}
		apiCommittees = append(apiCommittees, committees...)
	}

	committees := make([]data.FECCommittee, 0, len(apiCommittees))
	committeeIDs := make([]string, 0, len(apiCommittees))
	for _, c := range apiCommittees {
		fc := data.FECCommittee{
			ID:              c.CommitteeID,
			Name:            c.Name,
			TypeCode:        c.TypeCode,
			DesignationCode: c.DesignationCode,
			Party:           c.Party,
			State:           c.State,
			ActiveCycles:    []int{c.CycleFirst},
		}
		committees = append(committees, fc)
		committeeIDs = append(committeeIDs, fc.ID)

		if err := r.store.UpsertFECCommittee(ctx, fc); err != nil {
			return nil, fmt.Errorf("fec: persist committee %s: %w", fc.ID, err)
		}
	}

	newMapping := data.FECMapping{PoliticianID: politicianID, CandidateIDs: candidateIDs, CommitteeIDs: committeeIDs}
	if mapping != nil {
		newMapping.BioguideID = mapping.BioguideID
	}
	if err := r.store.UpsertFECMapping(ctx, newMapping, time.Now()); err != nil {
		return nil, fmt.Errorf("fec: persist mapping for %s: %w", politicianID, err)
	}

	return committees, nil
}

func (r *CommitteeResolver) fillCache(politicianID string, committees []data.FECCommittee) {
	r.mu.Lock()
	r.cache[politicianID] = committees
	r.mu.Unlock()
}

// ClassifiedNames returns committees grouped by their classification, as
// a convenience for callers building a summary (e.g. CLI output).
func ClassifiedNames(committees []data.FECCommittee) map[data.CommitteeType][]string {
	grouped := make(map[data.CommitteeType][]string)
	for _, c := range committees {
		kind := c.Classify()
		grouped[kind] = append(grouped[kind], strings.TrimSpace(c.Name))
	}
	return grouped
}

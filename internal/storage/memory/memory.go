// Package memory is a mutex-guarded in-process implementation of
// ports.Store. It backs DATA_BACKEND=memory and service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	accounts map[int64]core.DebtAccount
	flows    map[int64]core.CashFlow
	nextID   int64
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts: map[int64]core.DebtAccount{},
		flows:    map[int64]core.CashFlow{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListAccounts(context.Context) ([]core.DebtAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DebtAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.DebtAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.DebtAccount{}, &core.NotFoundError{Entity: "bank", ID: id}
	}
	return a.Clone(), nil
}

func (s *Store) CreateAccount(_ context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a = a.Clone()
	a.ID = s.id()
	a.Version = 1
	s.accounts[a.ID] = a
	return a.Clone(), nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok {
		return core.DebtAccount{}, &core.NotFoundError{Entity: "bank", ID: a.ID}
	}
	if cur.Version != a.Version {
		return core.DebtAccount{}, &core.ConflictError{Entity: "bank", ID: a.ID}
	}
	a = a.Clone()
	a.Version++
	s.accounts[a.ID] = a
	return a.Clone(), nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return &core.NotFoundError{Entity: "bank", ID: id}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) ListFlows(_ context.Context, kind core.FlowKind) ([]core.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CashFlow, 0)
	for _, f := range s.flows {
		if f.Kind == kind {
			out = append(out, cloneFlow(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetFlow(_ context.Context, id int64) (core.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[id]
	if !ok {
		return core.CashFlow{}, &core.NotFoundError{Entity: "flow", ID: id}
	}
	return cloneFlow(f), nil
}

func (s *Store) CreateFlowWithEntries(_ context.Context, f core.CashFlow) (core.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.prepareEntries(0, f.Entries)
	if err != nil {
		return core.CashFlow{}, err
	}
	f.ID = s.id()
	for i := range entries {
		entries[i].FlowID = f.ID
	}
	f.Entries = entries
	s.flows[f.ID] = f
	return cloneFlow(f), nil
}

func (s *Store) UpdateFlow(_ context.Context, f core.CashFlow) (core.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.flows[f.ID]
	if !ok {
		return core.CashFlow{}, &core.NotFoundError{Entity: "flow", ID: f.ID}
	}
	entries, err := s.prepareEntries(f.ID, f.Entries)
	if err != nil {
		return core.CashFlow{}, err
	}
	f.Kind = cur.Kind
	f.Entries = entries
	s.flows[f.ID] = f
	return cloneFlow(f), nil
}

func (s *Store) ReplaceEntries(_ context.Context, flowID int64, entries []core.ScheduleEntry) ([]core.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[flowID]
	if !ok {
		return nil, &core.NotFoundError{Entity: "flow", ID: flowID}
	}
	prepared, err := s.prepareEntries(flowID, entries)
	if err != nil {
		return nil, err
	}
	f.Entries = prepared
	s.flows[flowID] = f
	return cloneFlow(f).Entries, nil
}

func (s *Store) DeleteFlow(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[id]; !ok {
		return &core.NotFoundError{Entity: "flow", ID: id}
	}
	delete(s.flows, id)
	return nil
}

func (s *Store) ListEntries(_ context.Context, kind core.FlowKind, filter ports.EntryFilter) ([]core.EntryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.EntryView, 0)
	for _, f := range s.flows {
		if f.Kind != kind {
			continue
		}
		for _, e := range f.Entries {
			if filter.Matches(e) {
				out = append(out, core.EntryView{ScheduleEntry: e, Kind: f.Kind, FlowName: f.Name})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateEntrySettled(_ context.Context, kind core.FlowKind, id int64, settled bool) (core.EntryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fid, f := range s.flows {
		if f.Kind != kind {
			continue
		}
		for i, e := range f.Entries {
			if e.ID != id {
				continue
			}
			f.Entries[i].Settled = settled
			s.flows[fid] = f
			return core.EntryView{ScheduleEntry: f.Entries[i], Kind: f.Kind, FlowName: f.Name}, nil
		}
	}
	return core.EntryView{}, &core.NotFoundError{Entity: "entry", ID: id}
}

// prepareEntries validates every entry before assigning ids so a bad entry
// leaves the store untouched.
func (s *Store) prepareEntries(flowID int64, in []core.ScheduleEntry) ([]core.ScheduleEntry, error) {
	for _, e := range in {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]core.ScheduleEntry, len(in))
	for i, e := range in {
		e.ID = s.id()
		e.FlowID = flowID
		out[i] = e
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func cloneFlow(f core.CashFlow) core.CashFlow {
	f.Entries = append([]core.ScheduleEntry{}, f.Entries...)
	return f
}

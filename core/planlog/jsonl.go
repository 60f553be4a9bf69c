package planlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/matiasvr/fireline/core/model"
)

// JSONLStore stores plans in an append-only JSONL file. Acceptance is a
// marker line folded over the plan line at read time, which keeps the file
// append-only under concurrent writers.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Append(ctx context.Context, plan *model.AllocationPlan) error {
	rec := Record{
		PlanID:    plan.ID,
		Scenario:  plan.Scenario,
		Status:    plan.Status,
		Timestamp: plan.Timestamp,
		Plan:      plan,
	}
	return s.appendLine(rec)
}

func (s *JSONLStore) MarkAccepted(ctx context.Context, planID string, at time.Time) error {
	if _, err := s.Get(ctx, planID); err != nil {
		return err
	}
	return s.appendLine(Record{PlanID: planID, Accepted: true, AcceptedAt: at})
}

func (s *JSONLStore) appendLine(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	all, order, err := s.fold()
	if err != nil {
		return nil, err
	}
	var res []Record
	for _, id := range order {
		if r := all[id]; matches(r, q) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *JSONLStore) Get(ctx context.Context, planID string) (Record, error) {
	all, _, err := s.fold()
	if err != nil {
		return Record{}, err
	}
	r, ok := all[planID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// fold replays the file: plan lines create records, acceptance markers flag
// them. Returns the records keyed by plan id plus insertion order.
func (s *JSONLStore) fold() (map[string]Record, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	all := make(map[string]Record)
	var order []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if r.Plan != nil {
			if _, seen := all[r.PlanID]; !seen {
				order = append(order, r.PlanID)
			}
			all[r.PlanID] = r
			continue
		}
		if r.Accepted {
			if cur, ok := all[r.PlanID]; ok {
				cur.Accepted = true
				cur.AcceptedAt = r.AcceptedAt
				all[r.PlanID] = cur
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return all, order, nil
}

func (s *JSONLStore) Close() error { return nil }

package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoState is returned by a Store that has nothing saved yet.
var ErrNoState = errors.New("no saved coach state")

// Store persists the coach blob. The coach never touches storage directly.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
}

// MemoryStore keeps the blob in memory.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

var _ Store = &MemoryStore{}

func NewMemoryStore(initial []byte) *MemoryStore {
	return &MemoryStore{blob: append([]byte(nil), initial...)}
}

func (m *MemoryStore) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blob) == 0 {
		return nil, ErrNoState
	}
	return append([]byte(nil), m.blob...), nil
}

func (m *MemoryStore) Save(_ context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = append([]byte(nil), blob...)
	return nil
}

// FileStore keeps the blob in a single JSON file.
type FileStore struct {
	path string
}

var _ Store = &FileStore{}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) ([]byte, error) {
	bs, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("read coach state: %w", err)
	}
	return bs, nil
}

// Save writes to a temporary file and renames it over the target.
func (f *FileStore) Save(_ context.Context, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("write coach state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace coach state: %w", err)
	}
	return nil
}

// DecodeState parses a coach blob. Any syntax or shape error is reported;
// callers fall back to NewState.
func DecodeState(blob []byte) (*State, error) {
	var raw State
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("decode coach state: %w", err)
	}
	st := NewState()
	for id, rec := range raw.Missions {
		if rec == nil {
			return nil, fmt.Errorf("decode coach state: mission %d is null", id)
		}
		if rec.Attempts < 0 || rec.MasteryPercent < 0 || rec.MasteryPercent > 100 {
			return nil, fmt.Errorf("decode coach state: mission %d out of range", id)
		}
		if rec.PlanAction != nil && (*rec.PlanAction < 0 || *rec.PlanAction >= len(Presets)) {
			rec.PlanAction = nil
			rec.PlanState = ""
		}
		if rec.Status == "" {
			rec.Status = StatusNew
		}
		st.Missions[id] = rec
	}
	for key, row := range raw.PolicyQ {
		if len(row) < minPolicyWidth || len(row) > maxPolicyWidth {
			return nil, fmt.Errorf("decode coach state: policy row %q has %d values", key, len(row))
		}
		st.PolicyQ[key] = row
	}
	for id, rec := range raw.Concepts {
		if rec == nil {
			return nil, fmt.Errorf("decode coach state: concept %q is null", id)
		}
		st.Concepts[id] = rec
	}
	for id, n := range raw.QuestionSeen {
		st.QuestionSeen[id] = n
	}
	if raw.Decisions < 0 {
		return nil, fmt.Errorf("decode coach state: negative decision count %d", raw.Decisions)
	}
	st.Decisions = raw.Decisions
	return st, nil
}

// EncodeState serializes a coach blob.
func EncodeState(st *State) ([]byte, error) {
	return json.Marshal(st)
}

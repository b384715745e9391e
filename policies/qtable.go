package policies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/zeu5/maze-coach/core"
	"gonum.org/v1/gonum/floats"
)

// QTable maps state keys to one value per action. Rows are created with
// zeros on first access, so lookups never fail.
type QTable struct {
	table map[string]*core.ActionValues
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]*core.ActionValues),
	}
}

// Row returns the mutable row for state, inserting a zero row if needed.
func (q *QTable) Row(state string) *core.ActionValues {
	row, ok := q.table[state]
	if !ok {
		row = &core.ActionValues{}
		q.table[state] = row
	}
	return row
}

// Values returns a copy of the row for state.
func (q *QTable) Values(state string) core.ActionValues {
	return *q.Row(state)
}

func (q *QTable) Get(state string, action core.Action) float64 {
	return q.Row(state)[action]
}

func (q *QTable) Set(state string, action core.Action, val float64) {
	q.Row(state)[action] = val
}

// Max returns the best action for state and its value. Ties go to the lowest
// action index.
func (q *QTable) Max(state string) (core.Action, float64) {
	row := q.Row(state)
	i := floats.MaxIdx(row[:])
	return core.Action(i), row[i]
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) Size() int {
	return len(q.table)
}

// Keys lists the known states in sorted order.
func (q *QTable) Keys() []string {
	keys := make([]string, 0, len(q.table))
	for k := range q.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (q *QTable) Reset() {
	q.table = make(map[string]*core.ActionValues)
}

type qTableEntry struct {
	State  string    `json:"state"`
	Values []float64 `json:"values"`
}

// Read loads a table written by Record, replacing rows with the same key.
func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var in qTableEntry
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %w", err)
		}
		if len(in.Values) != core.NumActions {
			return fmt.Errorf("state %q has %d values, want %d", in.State, len(in.Values), core.NumActions)
		}
		row := q.Row(in.State)
		copy(row[:], in.Values)
	}
	return scanner.Err()
}

// Record writes the table as JSON lines, one state per line, in key order.
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)
	for _, state := range q.Keys() {
		row := q.table[state]
		line, err := json.Marshal(qTableEntry{State: state, Values: row[:]})
		if err != nil {
			return err
		}
		bs.Write(line)
		bs.WriteByte('\n')
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}

func argmax(v core.ActionValues) core.Action {
	return core.Action(floats.MaxIdx(v[:]))
}

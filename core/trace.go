package core

import "sync"

// Trace records the steps of an episode as reported to a StepObserver.
type Trace struct {
	mtx   *sync.Mutex
	steps []StepInfo
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]StepInfo, 0),
		mtx:   &sync.Mutex{},
	}
}

// Observer returns a StepObserver that appends to t. When episode is not
// negative only that episode is kept.
func (t *Trace) Observer(episode int) StepObserver {
	return func(s StepInfo) {
		if episode >= 0 && s.Episode != episode {
			return
		}
		t.AddStep(s)
	}
}

func (t *Trace) AddStep(s StepInfo) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) StepInfo {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

func (t *Trace) Last() (StepInfo, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return StepInfo{}, false
	}
	return t.steps[len(t.steps)-1], true
}

// Path lists the agent states visited, starting with the first step's
// previous state.
func (t *Trace) Path() []AgentState {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	path := make([]AgentState, 0, len(t.steps)+1)
	path = append(path, t.steps[0].Result.PrevState)
	for _, s := range t.steps {
		path = append(path, s.Result.State)
	}
	return path
}

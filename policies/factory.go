package policies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeu5/maze-coach/core"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm names one of the agent variants.
type Algorithm int

const (
	Random Algorithm = iota
	QLearning
	SARSA
	ExpectedSARSA
	DoubleQ
	DynaQ
	PPO
)

var algorithmNames = map[Algorithm]string{
	Random:        "random",
	QLearning:     "q-learning",
	SARSA:         "sarsa",
	ExpectedSARSA: "expected-sarsa",
	DoubleQ:       "double-q",
	DynaQ:         "dyna-q",
	PPO:           "ppo",
}

var algorithmLabels = map[Algorithm]string{
	Random:        "Random",
	QLearning:     "Q-learning",
	SARSA:         "SARSA",
	ExpectedSARSA: "Expected SARSA",
	DoubleQ:       "Double Q-learning",
	DynaQ:         "Dyna-Q",
	PPO:           "Tabular PPO",
}

func AllAlgorithms() []Algorithm {
	return []Algorithm{Random, QLearning, SARSA, ExpectedSARSA, DoubleQ, DynaQ, PPO}
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// Label is the human readable name.
func (a Algorithm) Label() string {
	if label, ok := algorithmLabels[a]; ok {
		return label
	}
	return a.String()
}

// ParseAlgorithm accepts the short name or the label, ignoring case, spaces,
// dashes and underscores.
func ParseAlgorithm(s string) (Algorithm, error) {
	want := normalizeName(s)
	for _, a := range AllAlgorithms() {
		if want == normalizeName(a.String()) || want == normalizeName(a.Label()) {
			return a, nil
		}
	}
	switch want {
	case "q", "qlearn":
		return QLearning, nil
	case "esarsa":
		return ExpectedSARSA, nil
	}
	return Random, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

func normalizeName(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if _, ok := algorithmNames[a]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// New builds the agent for alg.
func New(alg Algorithm, cfg Config) (core.Policy, error) {
	switch alg {
	case Random:
		return NewRandomPolicy(), nil
	case QLearning:
		return NewQLearningPolicy(cfg), nil
	case SARSA:
		return NewSarsaPolicy(cfg), nil
	case ExpectedSARSA:
		return NewExpectedSarsaPolicy(cfg), nil
	case DoubleQ:
		return NewDoubleQPolicy(cfg), nil
	case DynaQ:
		return NewDynaQPolicy(cfg), nil
	case PPO:
		return NewPPOPolicy(cfg), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(alg))
}

type PolicyConstructor struct {
	Algorithm Algorithm
	Config    Config
}

var _ core.PolicyConstructor = &PolicyConstructor{}

func NewPolicyConstructor(alg Algorithm, cfg Config) *PolicyConstructor {
	return &PolicyConstructor{
		Algorithm: alg,
		Config:    cfg,
	}
}

// NewPolicy falls back to the random baseline for an unknown algorithm.
func (p *PolicyConstructor) NewPolicy() core.Policy {
	policy, err := New(p.Algorithm, p.Config)
	if err != nil {
		return NewRandomPolicy()
	}
	return policy
}

package solver

import (
	"fmt"
	"strings"
)

// Kind selects a search strategy. The set is closed.
type Kind int

// Strategies.
const (
	Greedy Kind = iota
	Beam
	Genetic
	Annealing
)

var kindNames = [...]string{
	Greedy:    "greedy",
	Beam:      "beam",
	Genetic:   "genetic",
	Annealing: "annealing",
}

var kindAliases = map[string]Kind{
	"greedy":              Greedy,
	"lookahead":           Greedy,
	"beam":                Beam,
	"beam-search":         Beam,
	"genetic":             Genetic,
	"ga":                  Genetic,
	"annealing":           Annealing,
	"simulated-annealing": Annealing,
	"sa":                  Annealing,
}

// Kinds lists every strategy.
func Kinds() []Kind { return []Kind{Greedy, Beam, Genetic, Annealing} }

// Valid reports whether k is a known strategy.
func (k Kind) Valid() bool { return k >= Greedy && k <= Annealing }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a strategy name. Matching is case-insensitive and
// accepts a few common aliases ("ga", "sa", "beam-search").
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSolverType, s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSolverType, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

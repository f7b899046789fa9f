package solver

import (
	"context"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/fingering/internal/domain/model"
)

// GeneticSolver evolves a population of complete assignments. The first
// individual is the pure greedy solution, so the result is never worse than
// greedy without lookahead.
type GeneticSolver struct {
	base
}

// Kind implements Solver.
func (*GeneticSolver) Kind() Kind { return Genetic }

// Solve implements Solver. Results are deterministic for a given Seed; the
// parallel evaluation never touches the random source.
func (s *GeneticSolver) Solve(ctx context.Context, perf model.Performance, manual model.ManualAssignments) (Result, error) {
	p, err := s.prepare(perf, manual)
	if err != nil {
		return Result{}, err
	}
	cfg := p.cfg
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), pcgStream))
	free := p.free()

	pop := make([]genome, cfg.PopulationSize)
	pop[0] = make(genome, len(p.steps))
	for i := 1; i < len(pop); i++ {
		g := make(genome, len(p.steps))
		for _, idx := range free {
			g[idx] = gene{set: true, a: randomAssignment(rng)}
		}
		pop[i] = g
	}

	evals, err := s.evaluateAll(ctx, p, pop)
	if err != nil {
		return Result{}, err
	}
	rank(evals)
	log := []GenerationStats{stats(0, evals)}

	for gen := 1; gen <= cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		next := make([]genome, 0, cfg.PopulationSize)
		for i := 0; i < cfg.EliteCount; i++ {
			next = append(next, evals[i].genes)
		}
		for len(next) < cfg.PopulationSize {
			a := tournament(rng, evals, cfg.TournamentSize)
			b := tournament(rng, evals, cfg.TournamentSize)
			x, y := crossover(rng, a.genes, b.genes, cfg.CrossoverRate)
			mutate(rng, x, free, cfg.MutationRate)
			mutate(rng, y, free, cfg.MutationRate)
			next = append(next, x)
			if len(next) < cfg.PopulationSize {
				next = append(next, y)
			}
		}
		if evals, err = s.evaluateAll(ctx, p, next); err != nil {
			return Result{}, err
		}
		rank(evals)
		log = append(log, stats(gen, evals))
	}

	best := evals[0]
	res := p.summarize(Genetic, best.outs, best.final)
	res.EvolutionLog = log
	return res, nil
}

// evaluateAll scores the population with at most EvalWorkers goroutines.
func (s *GeneticSolver) evaluateAll(ctx context.Context, p *problem, pop []genome) ([]evaluation, error) {
	out := make([]evaluation, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	if p.cfg.EvalWorkers > 0 {
		g.SetLimit(p.cfg.EvalWorkers)
	}
	for i := range pop {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.evaluate(pop[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func rank(evals []evaluation) {
	sort.SliceStable(evals, func(i, j int) bool { return evals[i].cost < evals[j].cost })
}

// stats expects evals ranked best first.
func stats(gen int, evals []evaluation) GenerationStats {
	sum := 0.0
	for _, e := range evals {
		sum += e.cost
	}
	return GenerationStats{
		Generation:  gen,
		BestCost:    evals[0].cost,
		AverageCost: sum / float64(len(evals)),
		WorstCost:   evals[len(evals)-1].cost,
	}
}

func tournament(rng *rand.Rand, evals []evaluation, size int) evaluation {
	best := evals[rng.IntN(len(evals))]
	for i := 1; i < size; i++ {
		if e := evals[rng.IntN(len(evals))]; e.cost < best.cost {
			best = e
		}
	}
	return best
}

// crossover is single point; with probability 1-rate the parents are copied.
func crossover(rng *rand.Rand, a, b genome, rate float64) (genome, genome) {
	x, y := a.clone(), b.clone()
	if len(a) < 2 || rng.Float64() >= rate {
		return x, y
	}
	cut := 1 + rng.IntN(len(a)-1)
	copy(x[cut:], b[cut:])
	copy(y[cut:], a[cut:])
	return x, y
}

func mutate(rng *rand.Rand, g genome, free []int, rate float64) {
	for _, idx := range free {
		if rng.Float64() < rate {
			g[idx] = gene{set: true, a: randomAssignment(rng)}
		}
	}
}

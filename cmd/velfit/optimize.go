package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-velocity/analysis"
	fitcommon "github.com/cwbudde/algo-velocity/internal/fitcommon"
	"github.com/cwbudde/algo-velocity/param"
	"github.com/cwbudde/algo-velocity/velocity"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	target           []float64
	baseConfig       velocity.ModulationConfig
	defs             []knobDef
	initCandidate    candidate
	paramID          param.ID
	baseValue        float32
	points           int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
}

type optimizationResult struct {
	best        candidate
	bestConfig  velocity.ModulationConfig
	bestMetrics analysis.Metrics
	bestTrace   []float64
	top         []topCandidate
	evals       int
	elapsed     float64
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestMetrics analysis.Metrics
	top         []topCandidate
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	best := cloneCandidate(cfg.initCandidate)
	initialMetrics, _ := evaluateCandidate(cfg, best)
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", initialMetrics.Score, initialMetrics.Similarity*100.0)

	state := &optimizationState{
		best:        best,
		bestMetrics: initialMetrics,
		top:         updateTopCandidates(nil, cfg.topK, 1, initialMetrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				if atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return
				}

				round := int(atomic.AddInt64(&rounds, 1))
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				budget := fitcommon.MinInt(cfg.mayflyRoundEvals, remaining)
				iters := fitcommon.MaxInt(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					metrics, _ := evaluateCandidate(cfg, cand)

					improved := false
					var improveNum int64
					bestScore := 0.0

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), metrics, cfg.defs, cand)
					if metrics.Score < state.bestMetrics.Score {
						state.best = cloneCandidate(cand)
						state.bestMetrics = metrics
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
					}
					bestScore = state.bestMetrics.Score
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improveNum, evalNum, metrics.Score, metrics.Similarity*100.0)
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	finalBest := cloneCandidate(state.best)
	finalMetrics := state.bestMetrics
	finalTop := cloneTopCandidates(state.top)
	state.mu.Unlock()

	bestConfig := applyCandidate(cfg.baseConfig, cfg.defs, finalBest)
	return &optimizationResult{
		best:        finalBest,
		bestConfig:  bestConfig,
		bestMetrics: finalMetrics,
		bestTrace:   traceConfig(cfg, bestConfig),
		top:         finalTop,
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate) (analysis.Metrics, velocity.ModulationConfig) {
	modCfg := applyCandidate(cfg.baseConfig, cfg.defs, cand)
	trace := traceConfig(cfg, modCfg)
	return analysis.Compare(cfg.target, trace), modCfg
}

// traceConfig samples the full velocity response of one configuration.
// A fresh calculator per evaluation keeps gate and envelope state from
// leaking between candidates.
func traceConfig(cfg *optimizationConfig, modCfg velocity.ModulationConfig) []float64 {
	calc := velocity.NewCalculator()
	calc.Configure(cfg.paramID, modCfg)
	return analysis.ResponseTrace(cfg.points, func(vel int) float64 {
		return float64(calc.Calculate(cfg.paramID, cfg.baseValue, vel).ModulatedValue)
	})
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i := range in {
		entry := topCandidate{
			Eval:       in[i].Eval,
			Score:      in[i].Score,
			Similarity: in[i].Similarity,
			Knobs:      make(map[string]float64, len(in[i].Knobs)),
		}
		for k, v := range in[i].Knobs {
			entry.Knobs[k] = v
		}
		out[i] = entry
	}
	return out
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = fitcommon.MaxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestMetrics.Score
	state.mu.Unlock()
	return score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}


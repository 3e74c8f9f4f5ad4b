// Command optimize searches model parameters under which herbivores and
// carnivores coexist, using CMA-ES over a normalised parameter vector.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/biosim/config"
)

type options struct {
	configPath string
	maxCycles  int
	seeds      int
	maxEvals   int
	popSize    int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.maxCycles, "max-cycles", 200, "Cycles per simulated run (cap)")
	flag.IntVar(&opts.seeds, "seeds", 3, "Seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Evaluation budget")
	flag.IntVar(&opts.popSize, "population", 0, "CMA-ES population size (0 = 4 + 3*dim/2)")
	flag.StringVar(&opts.outputDir, "output", "", "Directory for optimize_log.csv and best_config.yaml")
	flag.Parse()

	if err := run(opts); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

// evalLog appends one CSV row per evaluation and remembers the best one.
type evalLog struct {
	w     *csv.Writer
	start time.Time
	total int

	n        int
	best     float64
	bestVals []float64
}

func newEvalLog(f *os.File, specs []ParamSpec, total int) (*evalLog, error) {
	l := &evalLog{w: csv.NewWriter(f), start: time.Now(), total: total}
	cols := []string{"eval", "fitness", "quality"}
	for _, s := range specs {
		cols = append(cols, s.Name)
	}
	if err := l.w.Write(cols); err != nil {
		return nil, err
	}
	l.w.Flush()
	return l, l.w.Error()
}

func (l *evalLog) record(fitness, quality float64, vals []float64) {
	l.n++
	if l.bestVals == nil || fitness < l.best {
		l.best, l.bestVals = fitness, vals
	}

	row := make([]string, 0, 3+len(vals))
	row = append(row, strconv.Itoa(l.n),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 4, 64))
	for _, v := range vals {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		slog.Warn("writing evaluation log", "error", err)
	}
	l.w.Flush()

	elapsed := time.Since(l.start)
	eta := time.Duration(l.total-l.n) * (elapsed / time.Duration(l.n))
	fmt.Printf("eval %d/%d: survived=%.0f quality=%.2f best=%.0f elapsed=%s eta=%s\n",
		l.n, l.total, -fitness/(1+0.2*quality), quality, l.best,
		elapsed.Round(time.Second), eta.Round(time.Second))
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	base, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := NewParamVector()
	seeds := make([]uint64, opts.seeds)
	for i := range seeds {
		seeds[i] = uint64(42 + 1000*i)
	}
	eval := NewFitnessEvaluator(params, opts.maxCycles, seeds, base)

	f, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating evaluation log: %w", err)
	}
	defer f.Close()
	log, err := newEvalLog(f, params.Specs, opts.maxEvals)
	if err != nil {
		return fmt.Errorf("writing evaluation log header: %w", err)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			vals := params.Clamp(params.Denormalize(x))
			fitness := eval.Evaluate(vals)
			log.record(fitness, eval.LastQuality(), vals)
			return fitness
		},
	}

	dim := params.Dim()
	pop := opts.popSize
	if pop == 0 {
		pop = 4 + 3*dim/2
	}
	slog.Info("starting CMA-ES", "params", dim, "population", pop, "max_evals", opts.maxEvals,
		"seeds", opts.seeds, "cycles", opts.maxCycles)

	// Seeds run concurrently inside Evaluate, so the optimizer itself stays
	// sequential.
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: pop}
	x0 := params.Normalize(params.ExtractFromConfig(base))

	result, err := optimize.Minimize(problem, x0, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	best := log.bestVals
	if best == nil {
		if result == nil {
			return errors.New("optimization produced no evaluations")
		}
		best = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nfinished %d evaluations in %s, best fitness %.0f\n", log.n, time.Since(log.start).Round(time.Second), log.best)
	for i, s := range params.Specs {
		fmt.Printf("  %-22s %.6f\n", s.Name, best[i])
	}

	out, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	if err := params.ApplyToConfig(out, best); err != nil {
		return fmt.Errorf("applying best parameters: %w", err)
	}
	path := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := out.WriteYAML(path); err != nil {
		return err
	}
	slog.Info("best config written", "path", path)
	return nil
}

package estimation

import "fmt"

// Engine orchestrates Calculator objects and aggregates their results
type Engine struct {
	calculators []Calculator
}

// NewEngine creates a new Engine, registering the given calculators in order.
func NewEngine(calculators ...Calculator) *Engine {
	e := &Engine{
		calculators: make([]Calculator, 0, len(calculators)),
	}
	for _, c := range calculators {
		e.Register(c)
	}
	return e
}

// Register adds a Calculator to participate in the estimation.
// Calculators are executed in the order they are registered.
// Register panics if a calculator with the same Name() is already registered,
// as duplicate names would silently overwrite results in Run.
func (e *Engine) Register(c Calculator) {
	for _, existing := range e.calculators {
		if existing.Name() == c.Name() {
			panic(fmt.Sprintf("estimation: calculator %q already registered", c.Name()))
		}
	}
	e.calculators = append(e.calculators, c)
}

// Names returns the registered calculator names in execution order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.calculators))
	for _, c := range e.calculators {
		names = append(names, c.Name())
	}
	return names
}

// Run executes all registered calculators against the provided params.
// A failing calculator still gets an entry, with a zero Duration and Err set.
func (e *Engine) Run(inputs []Param) map[string]Estimation {
	paramMap := make(map[string]Param, len(inputs))
	for _, p := range inputs {
		paramMap[p.Key] = p
	}

	results := make(map[string]Estimation, len(e.calculators))
	for _, calc := range e.calculators {
		est, err := calc.Calculate(paramMap)
		if err != nil {
			results[calc.Name()] = Estimation{
				Reason: fmt.Sprintf("Error: %v", err),
				Err:    err,
			}
			continue
		}
		results[calc.Name()] = est
	}
	return results
}

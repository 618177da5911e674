// Package cel provides the CEL-based forwarding filter.
package cel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

// maxExpressionLength is the maximum allowed length for filter expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit.
const maxCostBudget = 100_000

// evalTimeout is the maximum time allowed for a single evaluation.
const evalTimeout = time.Second

// interruptCheckFreq is how often (in comprehension iterations) context cancellation is checked.
const interruptCheckFreq = 100

// Evaluator compiles and evaluates forwarding filter expressions.
// The program for the most recently used expression is kept, so a hot
// reload of the filter recompiles once and steady traffic never does.
type Evaluator struct {
	env *cel.Env

	mu   sync.Mutex
	expr string
	prg  cel.Program
}

// NewEvaluator creates a new Evaluator with the filter environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := NewFilterEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks a filter expression.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	if len(expression) > maxExpressionLength {
		return nil, fmt.Errorf("expression too long: %d characters (max %d)", len(expression), maxExpressionLength)
	}
	if expression == "" {
		return nil, errors.New("expression is empty")
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return prg, nil
}

// ValidateExpression reports whether expr is a usable filter.
func (e *Evaluator) ValidateExpression(expr string) error {
	if _, err := e.Compile(expr); err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}
	return nil
}

// Match evaluates expr against in. An empty expression always matches.
func (e *Evaluator) Match(ctx context.Context, expr string, in gate.FilterInput) (bool, error) {
	if expr == "" {
		return true, nil
	}

	prg, err := e.compiled(expr)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, activation(in))
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return matched, nil
}

func (e *Evaluator) compiled(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.prg != nil && e.expr == expr {
		return e.prg, nil
	}
	prg, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	e.expr, e.prg = expr, prg
	return prg, nil
}

// Compile-time check that Evaluator implements gate.Filter.
var _ gate.Filter = (*Evaluator)(nil)

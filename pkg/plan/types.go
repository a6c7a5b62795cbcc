// Package plan contains the core value types for the production planner.
package plan

import (
	"errors"
	"fmt"
	"math/bits"
)

// Count is the number of items in a stack or the number of times a step runs.
type Count = uint64

// ErrCountOverflow is returned when accumulating counts would exceed the
// range of Count. Overflow aborts the operation rather than wrapping.
var ErrCountOverflow = errors.New("count overflow")

// AddCounts returns a+b, or ErrCountOverflow if the sum does not fit.
func AddCounts(a, b Count) (Count, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d + %d: %w", a, b, ErrCountOverflow)
	}
	return sum, nil
}

// MulCounts returns a*b, or ErrCountOverflow if the product does not fit.
func MulCounts(a, b Count) (Count, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%d * %d: %w", a, b, ErrCountOverflow)
	}
	return lo, nil
}

// Stack is some number of a single item. Two stacks are equal iff both the
// item and the count match.
type Stack struct {
	Item  string `json:"item" yaml:"item"`
	Count Count  `json:"count" yaml:"count"`
}

// NewStack makes a stack of count items.
func NewStack(item string, count Count) Stack {
	return Stack{Item: item, Count: count}
}

// String renders the stack in the textual recipe format, e.g. "Oak Log (1)".
func (s Stack) String() string {
	return fmt.Sprintf("%s (%d)", s.Item, s.Count)
}

// Synthetic production methods used for plan bookkeeping.
const (
	// MethodRawMaterial marks an item with no catalog recipe. The plan
	// assumes the caller supplies it.
	MethodRawMaterial = "Raw Material"

	// MethodInStorage marks an item drawn from the pre-supplied resource
	// pool rather than crafted.
	MethodInStorage = "In Storage"
)

// Recipe is a known way to produce one stack from a set of ingredient
// stacks. Executing a recipe once consumes every ingredient quantity and
// yields Result.Count of the result item. Recipes are immutable once
// registered; the catalog and the emitted plan share them by pointer.
type Recipe struct {
	Result      Stack   `json:"result" yaml:"result"`
	Method      string  `json:"method" yaml:"method"`
	Ingredients []Stack `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
}

// NewRecipe creates a recipe converting ingredients into result via method.
func NewRecipe(result Stack, method string, ingredients ...Stack) Recipe {
	return Recipe{Result: result, Method: method, Ingredients: ingredients}
}

// RawMaterial returns the synthetic recipe marking item as not producible.
func RawMaterial(item string) *Recipe {
	return &Recipe{Result: NewStack(item, 1), Method: MethodRawMaterial}
}

// InStorage returns the synthetic recipe marking item as drawn from stock.
func InStorage(item string) *Recipe {
	return &Recipe{Result: NewStack(item, 1), Method: MethodInStorage}
}

// Synthetic reports whether the recipe is one of the plan-bookkeeping
// pseudo-recipes rather than a genuine catalog entry.
func (r *Recipe) Synthetic() bool {
	return r.Method == MethodRawMaterial || r.Method == MethodInStorage
}

// Equal reports whether two recipes have the same result, method, and
// ingredient list.
func (r *Recipe) Equal(o *Recipe) bool {
	if r.Result != o.Result || r.Method != o.Method || len(r.Ingredients) != len(o.Ingredients) {
		return false
	}
	for i := range r.Ingredients {
		if r.Ingredients[i] != o.Ingredients[i] {
			return false
		}
	}
	return true
}

// Step is one entry of a plan: run Recipe Repeats times.
type Step struct {
	Recipe  *Recipe `json:"recipe" yaml:"recipe"`
	Repeats Count   `json:"repeats" yaml:"repeats"`
}

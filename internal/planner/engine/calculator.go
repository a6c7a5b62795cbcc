// Package engine implements the recipe resolution engine: it turns a target
// stack, a recipe catalog, and a pool of already-available resources into an
// ordered list of crafting steps.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/planforge/craftplan/pkg/plan"
)

// ErrRecipeCycle is returned when an item directly or transitively requires
// itself. The plan is left empty until the cycle is broken by overriding one
// of the recipes involved.
var ErrRecipeCycle = errors.New("recipe cycle")

// ErrInternal marks an internal consistency failure of the engine itself,
// as opposed to a problem with the caller's inputs.
var ErrInternal = errors.New("internal inconsistency")

// Calculator owns a recipe catalog, a target stack, and a resource pool, and
// keeps an ordered step list derived from them. Every mutating call rebuilds
// the step list from scratch; there is no incremental state between calls.
//
// The calculator is not safe for concurrent use. A host embedding it in a
// concurrent environment must serialize access itself.
type Calculator struct {
	recipes   map[string]*plan.Recipe
	target    plan.Stack
	resources map[string]plan.Count
	steps     []plan.Step
}

// New creates a calculator knowing the given recipes. Later recipes for the
// same result item override earlier ones. The target starts as a placeholder
// and no plan is computed until the first mutation.
func New(recipes ...plan.Recipe) *Calculator {
	c := &Calculator{
		recipes:   make(map[string]*plan.Recipe, len(recipes)),
		target:    plan.NewStack("", 1),
		resources: make(map[string]plan.Count),
	}
	for i := range recipes {
		r := recipes[i]
		c.recipes[r.Result.Item] = &r
	}
	return c
}

// Target returns the calculator's current target.
func (c *Calculator) Target() plan.Stack {
	return c.target
}

// Recipes returns the catalog recipes sorted by result item.
func (c *Calculator) Recipes() []*plan.Recipe {
	out := make([]*plan.Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Result.Item < out[j].Result.Item
	})
	return out
}

// Recipe returns the catalog recipe producing item, or nil.
func (c *Calculator) Recipe(item string) *plan.Recipe {
	return c.recipes[item]
}

// Resources returns the pre-supplied resource pool sorted by item.
func (c *Calculator) Resources() []plan.Stack {
	out := make([]plan.Stack, 0, len(c.resources))
	for item, count := range c.resources {
		out = append(out, plan.NewStack(item, count))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}

// Steps returns the ordered plan from the last recomputation. Every step's
// ingredients are satisfiable by earlier steps or the initial resource pool.
func (c *Calculator) Steps() []plan.Step {
	out := make([]plan.Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// AddResource merges the stack into the pool of resources that are already
// available and do not need to be crafted, then recomputes the plan.
func (c *Calculator) AddResource(resource plan.Stack) error {
	total, err := plan.AddCounts(c.resources[resource.Item], resource.Count)
	if err != nil {
		return fmt.Errorf("adding resource %s: %w", resource, err)
	}
	c.resources[resource.Item] = total
	return c.recalculate()
}

// SetRecipe registers the recipe for producing its result item, replacing
// any previous recipe for that item, then recomputes the plan.
func (c *Calculator) SetRecipe(recipe plan.Recipe) error {
	return c.AddRecipes(recipe)
}

// AddRecipes registers all given recipes, keyed by result item. If multiple
// recipes produce the same item, the last one wins. Recomputes the plan.
func (c *Calculator) AddRecipes(recipes ...plan.Recipe) error {
	for i := range recipes {
		r := recipes[i]
		c.recipes[r.Result.Item] = &r
	}
	return c.recalculate()
}

// SetTarget replaces the target stack and recomputes the plan.
func (c *Calculator) SetTarget(target plan.Stack) error {
	c.target = target
	return c.recalculate()
}

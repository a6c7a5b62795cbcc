package engine

import (
	"fmt"
	"maps"

	"github.com/planforge/craftplan/pkg/plan"
)

// recalculate rebuilds the step list from the current catalog, target, and
// resource pool. It runs in two phases: demand propagation turns the target
// quantity into a multiset of candidate steps in discovery order, and
// topological compaction reorders and merges that multiset so that no step
// consumes an ingredient before it has been produced or supplied.
//
// On any error the plan is left empty.
func (c *Calculator) recalculate() error {
	c.steps = nil
	if c.target.Item == "" {
		return nil
	}
	if err := c.checkAcyclic(); err != nil {
		return err
	}

	discovered, err := c.propagateDemand()
	if err != nil {
		return err
	}

	ordered, err := orderSteps(discovered)
	if err != nil {
		return err
	}
	c.steps = ordered
	return nil
}

// checkAcyclic walks the catalog from the target and fails if any item
// reachable from it transitively requires itself. Without this, demand
// propagation would not terminate.
func (c *Calculator) checkAcyclic() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)

	var visit func(item string) error
	visit = func(item string) error {
		if onPath[item] {
			return fmt.Errorf("item %q requires itself: %w", item, ErrRecipeCycle)
		}
		if visited[item] {
			return nil
		}
		recipe, ok := c.recipes[item]
		if !ok {
			// Raw material, nothing below it.
			return nil
		}
		onPath[item] = true
		for _, ing := range recipe.Ingredients {
			if err := visit(ing.Item); err != nil {
				return err
			}
		}
		delete(onPath, item)
		visited[item] = true
		return nil
	}

	return visit(c.target.Item)
}

// propagateDemand resolves the target quantity into candidate steps,
// exploring the recipe graph breadth-first by production depth so items
// closer to the target are settled before the items they are made of.
func (c *Calculator) propagateDemand() ([]plan.Step, error) {
	materials := maps.Clone(c.resources)
	crafted := make(map[string]plan.Count)
	demand := map[string]plan.Count{c.target.Item: c.target.Count}

	queue := newCraftQueue()
	queue.raise(c.target.Item, 0)

	var steps []plan.Step
	for {
		item, depth, ok := queue.popMin()
		if !ok {
			break
		}
		need, ok := demand[item]
		if !ok {
			// Fully resolved by an earlier pop of the same item.
			continue
		}
		delete(demand, item)

		// Surplus from earlier over-produced batches comes first.
		if avail := crafted[item]; avail > 0 {
			take := min(avail, need)
			crafted[item] -= take
			need -= take
		}

		// Then stock the caller told us about.
		if avail := materials[item]; avail > 0 && need > 0 {
			take := min(avail, need)
			materials[item] -= take
			need -= take
			steps = append(steps, plan.Step{Recipe: plan.InStorage(item), Repeats: take})
		}

		if need == 0 {
			continue
		}

		recipe, ok := c.recipes[item]
		if !ok {
			steps = append(steps, plan.Step{Recipe: plan.RawMaterial(item), Repeats: need})
			continue
		}

		yield := recipe.Result.Count
		if yield == 0 {
			return nil, fmt.Errorf("recipe for %q yields nothing: %w", item, ErrInternal)
		}
		repeats := (need-1)/yield + 1
		steps = append(steps, plan.Step{Recipe: recipe, Repeats: repeats})

		produced, err := plan.MulCounts(repeats, yield)
		if err != nil {
			return nil, fmt.Errorf("producing %q: %w", item, err)
		}
		if produced > need {
			// Any pre-existing surplus for this item was drained above, so
			// this never overwrites a live entry.
			crafted[item] = produced - need
		}

		childDepth := queue.childDepth(depth)
		for _, ing := range recipe.Ingredients {
			more, err := plan.MulCounts(ing.Count, repeats)
			if err != nil {
				return nil, fmt.Errorf("demand for %q: %w", ing.Item, err)
			}
			total, err := plan.AddCounts(demand[ing.Item], more)
			if err != nil {
				return nil, fmt.Errorf("demand for %q: %w", ing.Item, err)
			}
			demand[ing.Item] = total
			queue.raise(ing.Item, childDepth)
		}
	}

	if len(demand) != 0 {
		return nil, fmt.Errorf("unresolved demand for %d items after propagation: %w", len(demand), ErrInternal)
	}
	return steps, nil
}

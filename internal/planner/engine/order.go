package engine

import (
	"fmt"

	"github.com/planforge/craftplan/pkg/plan"
)

// orderSteps rewrites the discovery-order step multiset into execution
// order: raw materials first, then catalog steps in staged passes where a
// step is emitted only once all of its ingredients are available, with
// storage draws emitted just ahead of the step that consumes them.
// Duplicate steps for the same produced item are merged by summing repeats,
// preserving the order in which items were first discovered.
func orderSteps(discovered []plan.Step) ([]plan.Step, error) {
	var ordered []plan.Step
	available := make(map[string]bool)

	// Raw materials have no ingredients and go first.
	rawAt := make(map[string]int)
	remaining := discovered[:0:0]
	for _, s := range discovered {
		if s.Recipe.Method != plan.MethodRawMaterial {
			remaining = append(remaining, s)
			continue
		}
		item := s.Recipe.Result.Item
		if at, ok := rawAt[item]; ok {
			total, err := plan.AddCounts(ordered[at].Repeats, s.Repeats)
			if err != nil {
				return nil, fmt.Errorf("merging raw material %q: %w", item, err)
			}
			ordered[at].Repeats = total
			continue
		}
		rawAt[item] = len(ordered)
		ordered = append(ordered, s)
		available[item] = true
	}

	// Storage draws are held back until a consumer needs them.
	storage := make(map[string]plan.Step)
	var storageOrder []string
	steps := remaining[:0:0]
	for _, s := range remaining {
		if s.Recipe.Method != plan.MethodInStorage {
			steps = append(steps, s)
			continue
		}
		item := s.Recipe.Result.Item
		if prev, ok := storage[item]; ok {
			total, err := plan.AddCounts(prev.Repeats, s.Repeats)
			if err != nil {
				return nil, fmt.Errorf("merging storage draw %q: %w", item, err)
			}
			prev.Repeats = total
			storage[item] = prev
			continue
		}
		storage[item] = s
		storageOrder = append(storageOrder, item)
	}

	for len(steps) > 0 {
		var carried []plan.Step
		stageAt := make(map[string]int)
		var stageItems []string

		for _, s := range steps {
			ok, err := satisfiable(s, available, storage)
			if err != nil {
				return nil, err
			}
			if !ok {
				carried = append(carried, s)
				continue
			}

			// Draw repeats already hold the total units taken from stock.
			for _, ing := range s.Recipe.Ingredients {
				draw, ok := storage[ing.Item]
				if !ok {
					continue
				}
				delete(storage, ing.Item)
				ordered = append(ordered, draw)
				available[ing.Item] = true
			}

			item := s.Recipe.Result.Item
			if at, ok := stageAt[item]; ok {
				total, err := plan.AddCounts(ordered[at].Repeats, s.Repeats)
				if err != nil {
					return nil, fmt.Errorf("merging step for %q: %w", item, err)
				}
				ordered[at].Repeats = total
				continue
			}
			stageAt[item] = len(ordered)
			ordered = append(ordered, s)
			stageItems = append(stageItems, item)
		}

		if len(stageItems) == 0 {
			return nil, fmt.Errorf("no step became executable among %d remaining: %w", len(steps), ErrInternal)
		}
		// Stage outputs only become usable by the next stage.
		for _, item := range stageItems {
			available[item] = true
		}
		steps = carried
	}

	// Storage draws no step consumed (the target itself drawn from stock).
	for _, item := range storageOrder {
		if draw, ok := storage[item]; ok {
			ordered = append(ordered, draw)
		}
	}

	return ordered, nil
}

// satisfiable reports whether every ingredient of the step is already
// available or fully covered by a held-back storage draw.
func satisfiable(s plan.Step, available map[string]bool, storage map[string]plan.Step) (bool, error) {
	for _, ing := range s.Recipe.Ingredients {
		if available[ing.Item] {
			continue
		}
		draw, ok := storage[ing.Item]
		if !ok {
			return false, nil
		}
		stocked, err := plan.MulCounts(draw.Recipe.Result.Count, draw.Repeats)
		if err != nil {
			return false, fmt.Errorf("stock of %q: %w", ing.Item, err)
		}
		needed, err := plan.MulCounts(ing.Count, s.Repeats)
		if err != nil {
			return false, fmt.Errorf("need for %q: %w", ing.Item, err)
		}
		if stocked < needed {
			return false, nil
		}
	}
	return true, nil
}

package recipefile

import (
	"fmt"
	"io"
	"strings"

	"github.com/planforge/craftplan/pkg/plan"
)

// FormatRecipe renders one recipe block, newline-terminated.
func FormatRecipe(r *plan.Recipe) string {
	// A repeat count of 1 cannot overflow.
	s, _ := FormatStep(plan.Step{Recipe: r, Repeats: 1})
	return s
}

// FormatStep renders a plan step as a recipe block with the result and
// every ingredient scaled by the step's repeat count.
func FormatStep(s plan.Step) (string, error) {
	var b strings.Builder
	total, err := plan.MulCounts(s.Recipe.Result.Count, s.Repeats)
	if err != nil {
		return "", fmt.Errorf("scaling result %q: %w", s.Recipe.Result.Item, err)
	}
	fmt.Fprintf(&b, "%s (%d) (%s):\n", s.Recipe.Result.Item, total, s.Recipe.Method)
	for _, ing := range s.Recipe.Ingredients {
		scaled, err := plan.MulCounts(ing.Count, s.Repeats)
		if err != nil {
			return "", fmt.Errorf("scaling ingredient %q: %w", ing.Item, err)
		}
		fmt.Fprintf(&b, "    %s (%d)\n", ing.Item, scaled)
	}
	return b.String(), nil
}

// WriteRecipes writes recipe blocks separated by blank lines, a catalog file
// Parse can read back.
func WriteRecipes(w io.Writer, recipes []*plan.Recipe) error {
	for i, r := range recipes {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("writing recipes: %w", err)
			}
		}
		if _, err := io.WriteString(w, FormatRecipe(r)); err != nil {
			return fmt.Errorf("writing recipes: %w", err)
		}
	}
	return nil
}

// WriteSteps writes one scaled recipe block per plan step, in plan order.
func WriteSteps(w io.Writer, steps []plan.Step) error {
	for _, s := range steps {
		block, err := FormatStep(s)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, block); err != nil {
			return fmt.Errorf("writing steps: %w", err)
		}
	}
	return nil
}

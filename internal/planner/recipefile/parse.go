// Package recipefile reads and writes the textual recipe format: blocks of
//
//	Wooden Shovel (1) (Crafting Table):
//	    Oak Wood Planks (1)
//	    Stick (2)
//
// separated by blank lines. A single-ingredient recipe may carry its
// ingredient on the header line instead. Item names may contain any
// character except '('; counts are unsigned integers, optionally grouped
// with '_' separators.
package recipefile

import (
	"fmt"
	"os"
	"strings"

	"github.com/planforge/craftplan/pkg/plan"
)

// Parse reads every recipe block in data. Recipes without an explicit
// "(method)" on the header line get defaultMethod.
func Parse(data []byte, defaultMethod string) ([]plan.Recipe, error) {
	lines := strings.Split(string(data), "\n")
	var recipes []plan.Recipe

	i := 0
	for i < len(lines) {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}
		if indented(line) {
			return nil, fmt.Errorf("line %d: ingredient line without a recipe header", i+1)
		}

		recipe, next, err := parseBlock(lines, i, defaultMethod)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
		i = next
	}

	return recipes, nil
}

// ParseFile reads and parses the recipe file at path.
func ParseFile(path, defaultMethod string) ([]plan.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe file: %w", err)
	}
	recipes, err := Parse(data, defaultMethod)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recipes, nil
}

// parseBlock parses one recipe block starting at line i and returns the
// recipe and the index of the first line after the block.
func parseBlock(lines []string, i int, defaultMethod string) (plan.Recipe, int, error) {
	header := lines[i]

	result, rest, err := splitStack(header)
	if err != nil {
		return plan.Recipe{}, 0, fmt.Errorf("line %d: %w", i+1, err)
	}

	method := defaultMethod
	if strings.HasPrefix(rest, " (") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return plan.Recipe{}, 0, fmt.Errorf("line %d: unterminated method", i+1)
		}
		method = rest[2:end]
		if method == "" {
			return plan.Recipe{}, 0, fmt.Errorf("line %d: empty method", i+1)
		}
		rest = rest[end+1:]
	}
	if !strings.HasPrefix(rest, ":") {
		return plan.Recipe{}, 0, fmt.Errorf("line %d: expected ':' after result", i+1)
	}
	rest = rest[1:]

	recipe := plan.NewRecipe(result, method)

	// Single-ingredient form: the ingredient sits on the header line.
	if trimmed := strings.TrimSpace(rest); trimmed != "" {
		ing, err := ParseStack(trimmed)
		if err != nil {
			return plan.Recipe{}, 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
		return recipe, i + 1, nil
	}

	// Multi-line form: one indented stack per line.
	i++
	for i < len(lines) && indented(lines[i]) && strings.TrimSpace(lines[i]) != "" {
		ing, err := ParseStack(strings.TrimSpace(lines[i]))
		if err != nil {
			return plan.Recipe{}, 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
		i++
	}
	if len(recipe.Ingredients) == 0 {
		return plan.Recipe{}, 0, fmt.Errorf("recipe for %q has no ingredients", result.Item)
	}

	return recipe, i, nil
}

// ParseStack parses "Item Name (count)", the whole input.
func ParseStack(s string) (plan.Stack, error) {
	stack, rest, err := splitStack(s)
	if err != nil {
		return plan.Stack{}, err
	}
	if strings.TrimSpace(rest) != "" {
		return plan.Stack{}, fmt.Errorf("junk after stack: %q", rest)
	}
	return stack, nil
}

// splitStack parses a leading "Item Name (count)" and returns the remainder.
func splitStack(s string) (plan.Stack, string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return plan.Stack{}, "", fmt.Errorf("expected '(count)' in %q", s)
	}
	item := strings.TrimSpace(s[:open])
	if item == "" {
		return plan.Stack{}, "", fmt.Errorf("missing item name in %q", s)
	}
	close := strings.IndexByte(s[open:], ')')
	if close < 0 {
		return plan.Stack{}, "", fmt.Errorf("unterminated count in %q", s)
	}
	count, err := parseCount(s[open+1 : open+close])
	if err != nil {
		return plan.Stack{}, "", err
	}
	return plan.NewStack(item, count), s[open+close+1:], nil
}

// parseCount reads an unsigned integer whose digits may be grouped with '_'
// separators, e.g. "1_000". The first character must be a digit.
func parseCount(s string) (plan.Count, error) {
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	var acc plan.Count
	for _, c := range []byte(s) {
		if c == '_' {
			continue
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid count %q", s)
		}
		shifted, err := plan.MulCounts(acc, 10)
		if err != nil {
			return 0, fmt.Errorf("count %q: %w", s, err)
		}
		acc, err = plan.AddCounts(shifted, plan.Count(c-'0'))
		if err != nil {
			return 0, fmt.Errorf("count %q: %w", s, err)
		}
	}
	return acc, nil
}

func indented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

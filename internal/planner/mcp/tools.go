package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planforge/craftplan/internal/planner/recipefile"
	"github.com/planforge/craftplan/pkg/plan"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

var stackSchema = Property{
	Type: "object",
	Properties: map[string]Property{
		"item":  {Type: "string", Description: "Item name"},
		"count": {Type: "integer", Description: "Item count"},
	},
	Required: []string{"item", "count"},
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		setTargetTool(),
		addResourceTool(),
		addRecipesTool(),
		getPlanTool(),
		getRecipesTool(),
	}
}

func setTargetTool() ToolDefinition {
	return ToolDefinition{
		Name:        "set_target",
		Description: "Set the stack the plan should produce. Returns the recomputed plan.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"target": stackSchema,
			},
			Required: []string{"target"},
		},
	}
}

func addResourceTool() ToolDefinition {
	return ToolDefinition{
		Name:        "add_resource",
		Description: "Add a stack to the pool of already-available resources. Counts accumulate. Returns the recomputed plan.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"resource": stackSchema,
			},
			Required: []string{"resource"},
		},
	}
}

func addRecipesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "add_recipes",
		Description: "Register recipes, either structured or as recipe-file text. Later recipes for the same result item override earlier ones. Returns the recomputed plan.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"recipes": {
					Type:        "array",
					Description: "Structured recipes",
					Items: &Property{
						Type: "object",
						Properties: map[string]Property{
							"result":      stackSchema,
							"method":      {Type: "string", Description: "Production method label"},
							"ingredients": {Type: "array", Items: &stackSchema},
						},
						Required: []string{"result", "ingredients"},
					},
				},
				"text": {
					Type:        "string",
					Description: "Recipes in the textual recipe-file format",
				},
			},
		},
	}
}

func getPlanTool() ToolDefinition {
	return ToolDefinition{
		Name:        "get_plan",
		Description: "Return the ordered plan for the current target: which recipes to run, how many times, in execution order.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

func getRecipesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "get_recipes",
		Description: "Return the recipe catalog the planner currently knows about.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

// PlanResult is the shared response of the mutating tools and get_plan.
type PlanResult struct {
	Target   plan.Stack  `json:"target"`
	Steps    []plan.Step `json:"steps"`
	Rendered string      `json:"rendered"`
}

func (s *Server) planResult() (PlanResult, error) {
	steps := s.calc.Steps()
	var b strings.Builder
	for _, step := range steps {
		block, err := recipefile.FormatStep(step)
		if err != nil {
			return PlanResult{}, fmt.Errorf("rendering plan: %w", err)
		}
		b.WriteString(block)
	}
	return PlanResult{
		Target:   s.calc.Target(),
		Steps:    steps,
		Rendered: b.String(),
	}, nil
}

func (s *Server) toolSetTarget(_ context.Context, args json.RawMessage) (any, error) {
	var req struct {
		Target plan.Stack `json:"target"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if req.Target.Item == "" {
		return nil, fmt.Errorf("target item must not be empty")
	}
	if err := s.calc.SetTarget(req.Target); err != nil {
		return nil, err
	}
	return s.planResult()
}

func (s *Server) toolAddResource(_ context.Context, args json.RawMessage) (any, error) {
	var req struct {
		Resource plan.Stack `json:"resource"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if req.Resource.Item == "" {
		return nil, fmt.Errorf("resource item must not be empty")
	}
	if err := s.calc.AddResource(req.Resource); err != nil {
		return nil, err
	}
	return s.planResult()
}

func (s *Server) toolAddRecipes(_ context.Context, args json.RawMessage) (any, error) {
	var req struct {
		Recipes []plan.Recipe `json:"recipes"`
		Text    string        `json:"text"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	recipes := req.Recipes
	for i, r := range recipes {
		if r.Method == "" {
			recipes[i].Method = s.defaultMethod
		}
	}
	if req.Text != "" {
		parsed, err := recipefile.Parse([]byte(req.Text), s.defaultMethod)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, parsed...)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("no recipes given")
	}

	if err := s.calc.AddRecipes(recipes...); err != nil {
		return nil, err
	}
	return s.planResult()
}

func (s *Server) toolGetPlan(context.Context, json.RawMessage) (any, error) {
	return s.planResult()
}

// RecipesResult is the response of get_recipes.
type RecipesResult struct {
	Recipes []plan.Recipe `json:"recipes"`
}

func (s *Server) toolGetRecipes(context.Context, json.RawMessage) (any, error) {
	catalog := s.calc.Recipes()
	recipes := make([]plan.Recipe, len(catalog))
	for i, r := range catalog {
		recipes[i] = *r
	}
	return RecipesResult{Recipes: recipes}, nil
}

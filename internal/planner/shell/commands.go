package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planforge/craftplan/internal/planner/engine"
	"github.com/planforge/craftplan/internal/planner/recipefile"
	"github.com/planforge/craftplan/pkg/plan"
)

// command pairs a name with its behavior and its help text.
type command struct {
	name    string
	example string
	short   string
	long    string
	apply   func(ctx context.Context, sh *Shell, args string) error
}

func (c *command) describe() string {
	if c.long != "" {
		return c.long
	}
	return c.short
}

var commands = []*command{
	{
		name:    "help",
		example: "help [cmd]",
		short:   "Print this help message or print detailed help about `cmd`.",
		long:    "Print information about the available commands. Use `help cmd` to print help about the command `cmd`.",
		// apply is set in init to avoid an initialization cycle with cmdHelp.
	},
	{
		name:    "load",
		example: "load <file>",
		short:   "Read recipes from `file`.",
		apply:   cmdLoad,
	},
	{
		name:    "print",
		example: "print [what]",
		short:   "Print the current state of the calculator.",
		long: "Print the current state of the calculator.\n" +
			"`what` can be `steps`, `resources`, or `recipes`. " +
			"If `what` is omitted, it is assumed to be `steps`.",
		apply: cmdPrint,
	},
	{
		name:    "recipe",
		example: "recipe",
		short:   "Add a new recipe to the calculator.",
		long:    "Prompts for a result, a method, and ingredients until a blank line, then registers the recipe.",
		apply:   cmdRecipe,
	},
	{
		name:    "resource",
		example: "resource [stack]",
		short:   "Adds `stack` as a resource that is already available for crafting.",
		long:    "Adds `stack` as a resource that is already available and therefore does not need to be crafted.",
		apply:   cmdResource,
	},
	{
		name:    "target",
		example: "target [stack]",
		short:   "Sets the calculator to target `stack` or prints the current target.",
		long:    "If `stack` is given, the calculator's target is set to `stack`. Otherwise, prints the calculator's current target.",
		apply:   cmdTarget,
	},
	{
		name:    "write",
		example: "write <file> [what]",
		short:   "Similar to `print what` but writes to `file` and defaults to `recipes`.",
		long: "Write the current state of the calculator to `file`.\n" +
			"`what` can be `steps`, `resources`, or `recipes`; the default is `recipes`. " +
			"A `.yaml` or `.yml` file gets the steps as structured YAML.",
		apply: cmdWrite,
	},
	{
		name:    "save",
		example: "save <name>",
		short:   "Save the calculator state as a named session.",
		apply:   cmdSave,
	},
	{
		name:    "open",
		example: "open <name>",
		short:   "Replace the calculator state with a saved session.",
		apply:   cmdOpen,
	},
	{
		name:    "sessions",
		example: "sessions",
		short:   "List saved sessions.",
		apply:   cmdSessions,
	},
	{
		name:    "quit",
		example: "quit",
		short:   "Exit the shell.",
		apply: func(context.Context, *Shell, string) error {
			return errQuit
		},
	},
}

func init() {
	for _, c := range commands {
		if c.name == "help" {
			c.apply = cmdHelp
		}
	}
}

func cmdHelp(_ context.Context, sh *Shell, args string) error {
	if args != "" {
		for _, c := range commands {
			if c.name == args {
				fmt.Fprintln(sh.out, c.describe())
				return nil
			}
		}
	}
	width := 0
	for _, c := range commands {
		width = max(width, len(c.example))
	}
	for _, c := range commands {
		fmt.Fprintf(sh.out, "%-*s   %s\n", width, c.example, c.short)
	}
	return nil
}

func cmdLoad(_ context.Context, sh *Shell, args string) error {
	if args == "" {
		return errors.New("load needs a file argument")
	}
	recipes, err := recipefile.ParseFile(args, sh.defaultMethod)
	if err != nil {
		return err
	}
	if err := sh.calc.AddRecipes(recipes...); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "loaded %d recipes from %s\n", len(recipes), args)
	return nil
}

func cmdPrint(_ context.Context, sh *Shell, args string) error {
	switch args {
	case "steps", "":
		return recipefile.WriteSteps(sh.out, sh.calc.Steps())
	case "resources":
		for _, res := range sh.calc.Resources() {
			fmt.Fprintln(sh.out, res)
		}
		return nil
	case "recipes":
		return recipefile.WriteRecipes(sh.out, sh.calc.Recipes())
	default:
		return fmt.Errorf("unknown `what`: %q", args)
	}
}

func cmdRecipe(_ context.Context, sh *Shell, _ string) error {
	line, err := sh.prompt("Enter result (ex: Oak Planks (4))")
	if err != nil {
		return fmt.Errorf("reading result: %w", err)
	}
	result, err := recipefile.ParseStack(line)
	if err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}

	method, err := sh.prompt("Enter crafting method")
	if err != nil {
		return fmt.Errorf("reading method: %w", err)
	}
	if method == "" {
		method = sh.defaultMethod
	}

	var ingredients []plan.Stack
	for {
		line, err := sh.prompt("Enter ingredient (leave blank to finish)")
		if err != nil {
			return fmt.Errorf("reading ingredient: %w", err)
		}
		if line == "" {
			break
		}
		ing, err := recipefile.ParseStack(line)
		if err != nil {
			return fmt.Errorf("parsing ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}

	return sh.calc.SetRecipe(plan.NewRecipe(result, method, ingredients...))
}

func cmdResource(_ context.Context, sh *Shell, args string) error {
	line := args
	if line == "" {
		var err error
		line, err = sh.prompt("Enter resource")
		if err != nil {
			return fmt.Errorf("reading resource: %w", err)
		}
	}
	resource, err := recipefile.ParseStack(line)
	if err != nil {
		return fmt.Errorf("parsing resource: %w", err)
	}
	return sh.calc.AddResource(resource)
}

func cmdTarget(_ context.Context, sh *Shell, args string) error {
	if args == "" {
		fmt.Fprintf(sh.out, "Current target is %s\n", sh.calc.Target())
		return nil
	}
	target, err := recipefile.ParseStack(args)
	if err != nil {
		return fmt.Errorf("parsing target: %w", err)
	}
	return sh.calc.SetTarget(target)
}

func cmdWrite(_ context.Context, sh *Shell, args string) error {
	if args == "" {
		return errors.New("write needs a file argument")
	}
	path := args
	what := "recipes"
	if file, rest, ok := strings.Cut(args, " "); ok {
		path = file
		what = strings.TrimSpace(rest)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch ext := filepath.Ext(path); {
	case ext == ".yaml" || ext == ".yml":
		return writeStepsYAML(f, sh.calc.Steps())
	case what == "steps":
		return recipefile.WriteSteps(f, sh.calc.Steps())
	case what == "resources":
		for _, res := range sh.calc.Resources() {
			fmt.Fprintln(f, res)
		}
		return nil
	case what == "recipes":
		return recipefile.WriteRecipes(f, sh.calc.Recipes())
	default:
		return fmt.Errorf("unknown `what`: %q", what)
	}
}

// writeStepsYAML emits the plan as structured YAML for machine consumers.
func writeStepsYAML(w io.Writer, steps []plan.Step) error {
	data, err := yaml.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encoding steps: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing steps: %w", err)
	}
	return nil
}

func cmdSave(ctx context.Context, sh *Shell, args string) error {
	if sh.store == nil {
		return errors.New("no database configured")
	}
	if args == "" {
		return errors.New("save needs a session name")
	}
	_, err := sh.store.SaveSession(ctx, args, sh.calc.Target(), sh.calc.Recipes(), sh.calc.Resources())
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "saved session %q\n", args)
	return nil
}

func cmdOpen(ctx context.Context, sh *Shell, args string) error {
	if sh.store == nil {
		return errors.New("no database configured")
	}
	if args == "" {
		return errors.New("open needs a session name")
	}
	sess, err := sh.store.LoadSession(ctx, args)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session named %q", args)
	}

	calc := engine.New(sess.Recipes...)
	for _, res := range sess.Resources {
		if err := calc.AddResource(res); err != nil {
			return fmt.Errorf("restoring resources: %w", err)
		}
	}
	if err := calc.SetTarget(sess.Target); err != nil {
		return fmt.Errorf("restoring target: %w", err)
	}
	sh.calc = calc
	fmt.Fprintf(sh.out, "opened session %q (target %s)\n", args, sess.Target)
	return nil
}

func cmdSessions(ctx context.Context, sh *Shell, _ string) error {
	if sh.store == nil {
		return errors.New("no database configured")
	}
	infos, err := sh.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(sh.out, "no saved sessions")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(sh.out, "%s: target %s, %d recipes, updated %s\n",
			info.Name, info.Target, info.RecipeCount, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

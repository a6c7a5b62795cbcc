package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/craftplan/internal/planner/engine"
	"github.com/planforge/craftplan/internal/planner/store"
	"github.com/planforge/craftplan/pkg/plan"
)

func newTestShell(t *testing.T, calc *engine.Calculator, input string) (*Shell, *bytes.Buffer) {
	t.Helper()
	st, err := store.OpenAndInit(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var out bytes.Buffer
	return New(calc, st, nil, "Crafting Table", strings.NewReader(input), &out), &out
}

func TestLookupExact(t *testing.T) {
	sh, _ := newTestShell(t, engine.New(), "")

	cmd, err := sh.lookup("target")
	require.NoError(t, err)
	assert.Equal(t, "target", cmd.name)
}

func TestLookupPrefix(t *testing.T) {
	sh, _ := newTestShell(t, engine.New(), "")

	cmd, err := sh.lookup("t")
	require.NoError(t, err)
	assert.Equal(t, "target", cmd.name)

	cmd, err = sh.lookup("w")
	require.NoError(t, err)
	assert.Equal(t, "write", cmd.name)
}

func TestLookupAmbiguous(t *testing.T) {
	sh, _ := newTestShell(t, engine.New(), "")

	// "re" matches recipe and resource.
	_, err := sh.lookup("re")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, err.Error(), "recipe")
	assert.Contains(t, err.Error(), "resource")

	// "s" matches save and sessions.
	_, err = sh.lookup("s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestLookupSuggestion(t *testing.T) {
	sh, _ := newTestShell(t, engine.New(), "")

	_, err := sh.lookup("tadget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "target"`)

	_, err = sh.lookup("xyzzy")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestRunTargetAndPrint(t *testing.T) {
	input := "load testdata/wood.txt\n" +
		"target Wooden Shovel (1)\n" +
		"print steps\n" +
		"quit\n"
	sh, out := newTestShell(t, engine.New(), input)

	require.NoError(t, sh.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "loaded 3 recipes from testdata/wood.txt")
	assert.Contains(t, got, "Oak Log (1) (Raw Material):\n")
	assert.Contains(t, got, "Wooden Shovel (1) (Crafting Table):\n")
}

func TestRunRecipePrompts(t *testing.T) {
	input := "recipe\n" +
		"Charcoal (1)\n" + // result
		"Furnace\n" + // method
		"Oak Log (1)\n" + // ingredient
		"\n" + // blank line finishes
		"target Charcoal (2)\n" +
		"print\n" +
		"quit\n"
	calc := engine.New()
	sh, out := newTestShell(t, calc, input)

	require.NoError(t, sh.Run(context.Background()))

	require.NotNil(t, calc.Recipe("Charcoal"))
	assert.Contains(t, out.String(), "Charcoal (2) (Furnace):\n    Oak Log (2)\n")
}

func TestRunResourceAndTargetQuery(t *testing.T) {
	input := "resource Stick (3)\n" +
		"target Stick (2)\n" +
		"target\n" +
		"print resources\n" +
		"quit\n"
	sh, out := newTestShell(t, engine.New(), input)

	require.NoError(t, sh.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Current target is Stick (2)")
	assert.Contains(t, got, "Stick (3)\n")
}

func TestRunBadCommandIsNotFatal(t *testing.T) {
	input := "bogus\n" +
		"target Oak Log (1)\n" +
		"quit\n"
	sh, out := newTestShell(t, engine.New(), input)

	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "unknown command")
}

func TestRunEOFExits(t *testing.T) {
	sh, _ := newTestShell(t, engine.New(), "target Oak Log (1)\n")
	require.NoError(t, sh.Run(context.Background()))
}

func TestRunSaveAndOpen(t *testing.T) {
	input := "resource Stick (1)\n" +
		"target Stick (4)\n" +
		"save bench\n" +
		"quit\n"
	sh, out := newTestShell(t, engine.New(), input)
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), `saved session "bench"`)

	// Reopen into a fresh calculator through the same store.
	fresh := engine.New()
	var out2 bytes.Buffer
	sh2 := New(fresh, sh.store, nil, "Crafting Table",
		strings.NewReader("open bench\nsessions\nquit\n"), &out2)
	require.NoError(t, sh2.Run(context.Background()))

	assert.Contains(t, out2.String(), `opened session "bench" (target Stick (4))`)
	assert.Contains(t, out2.String(), "bench: target Stick (4), 0 recipes")
	assert.Equal(t, plan.NewStack("Stick", 4), sh2.calc.Target())

	steps := sh2.calc.Steps()
	require.Len(t, steps, 2)
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")

	input := "target Oak Log (2)\n" +
		"write " + path + "\n" +
		"quit\n"
	sh, _ := newTestShell(t, engine.New(), input)
	require.NoError(t, sh.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "item: Oak Log")
	assert.Contains(t, string(data), "repeats: 2")
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/seedbloom/internal/models"
	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// resetFlags restores every flag to its default so runs don't leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type harness struct {
	t        *testing.T
	snapshot string
}

func newHarness(t *testing.T) *harness {
	t.Setenv("SEEDBLOOM_DIMENSIONS", "8")
	t.Setenv("SEEDBLOOM_CAPACITY", "100")
	t.Setenv("SEEDBLOOM_LOG_LEVEL", "ERROR")
	t.Setenv("SEEDBLOOM_LOG_FILE", "")
	return &harness{t: t, snapshot: filepath.Join(t.TempDir(), "seeds.jsonl")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--snapshot", h.snapshot}, args...))

	err := Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, "seedbloom %v", args)
	return out
}

func (h *harness) store(text string) string {
	h.t.Helper()
	out := h.mustRun("store", text)
	fields := strings.Fields(out)
	require.GreaterOrEqual(h.t, len(fields), 3, out)
	return fields[2]
}

func (h *harness) showSeed(id string) models.Seed {
	h.t.Helper()
	var seed models.Seed
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("show", id, "--json")), &seed))
	return seed
}

func TestStoreAndRecall(t *testing.T) {
	h := newHarness(t)
	apple := h.store("apple orchard in bloom")
	h.store("car engine oil")

	out := h.mustRun("recall", "apple orchard in bloom", "-n", "1")
	assert.Contains(t, out, "Found 1 seeds")
	assert.Contains(t, out, "1.000")
	assert.Contains(t, out, models.ShortID(apple))

	var hits []models.Hit
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("recall", "car engine oil", "--json")), &hits))
	require.Len(t, hits, 2)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestRecall_PersistsReinforcement(t *testing.T) {
	h := newHarness(t)
	id := h.store("morning coffee")

	h.mustRun("recall", "morning coffee", "-n", "1")

	seed := h.showSeed(id)
	assert.Equal(t, 1, seed.AccessCount)
	assert.InDelta(t, 0.55, seed.Weight, 1e-9)
}

func TestStore_FileWithFrontmatter(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "apples.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Apples\ncolor: red\n---\nCrisp red fruit.\n"), 0644))

	out := h.mustRun("store", "--file", path, "--attr", "season=autumn")
	assert.Contains(t, out, "Apples")

	id := strings.Fields(out)[2]
	show := h.mustRun("show", id[:6])
	assert.Contains(t, show, "Apples")
	assert.Contains(t, show, id)
	assert.Contains(t, show, "Hint:")
}

func TestStore_Stdin(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("piped note about rivers", "store", "--file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored seed")
}

func TestStore_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "store")
	assert.ErrorContains(t, err, "nothing to store")

	_, err = h.run("", "store", "text", "--file", "x.md")
	assert.ErrorContains(t, err, "not both")

	_, err = h.run("", "store", "--attr", "novalue")
	assert.ErrorContains(t, err, "key=value")
}

func TestBloom(t *testing.T) {
	h := newHarness(t)
	root := h.store("apple orchard trees")
	h.store("apple orchard blossoms")
	h.store("apple pie recipe")

	out := h.mustRun("bloom", root, "--depth", "2")
	assert.Contains(t, out, "Summary:")
	assert.Contains(t, out, "apple orchard trees")

	var res models.BloomResult
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("bloom", root, "--json")), &res))
	assert.Equal(t, root, res.RootID)
	assert.LessOrEqual(t, len(res.Related), 2)
}

func TestTick(t *testing.T) {
	h := newHarness(t)
	id := h.store("decaying memory")

	out := h.mustRun("tick", "--rate", "0.5")
	assert.Contains(t, out, "Decayed 1 seeds")
	assert.Equal(t, 0.25, h.showSeed(id).Weight)

	_, err := h.run("", "tick", "--rate", "2")
	assert.ErrorIs(t, err, resonance.ErrInvalidArgument)
}

func TestForgetAndList(t *testing.T) {
	h := newHarness(t)
	id := h.store("short lived")
	h.store("long lived")

	list := h.mustRun("list")
	assert.Contains(t, list, "short lived")
	assert.Contains(t, list, "long lived")

	out := h.mustRun("forget", id)
	assert.Contains(t, out, id)

	list = h.mustRun("list")
	assert.NotContains(t, list, "short lived")
	assert.Contains(t, list, "long lived")
}

func TestStore_FullMemoryKeepsReinforcedSeeds(t *testing.T) {
	h := newHarness(t)
	t.Setenv("SEEDBLOOM_CAPACITY", "2")

	h.store("apple orchard")
	h.store("river stones")
	h.mustRun("recall", "apple orchard", "-n", "2")

	out := h.mustRun("store", "cloud shapes")
	assert.Contains(t, out, "not kept")
	assert.NotContains(t, out, "Stored seed")

	list := h.mustRun("list")
	assert.Contains(t, list, "apple orchard")
	assert.Contains(t, list, "river stones")
	assert.NotContains(t, list, "cloud shapes")
}

func TestShow_Unknown(t *testing.T) {
	h := newHarness(t)
	h.store("only seed")

	_, err := h.run("", "show", "zzzz")
	assert.ErrorIs(t, err, resonance.ErrNotFound)
}

func TestReadOnlyCommandsDoNotWriteSnapshot(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("list")
	assert.Contains(t, out, "No seeds stored.")

	h.mustRun("stats")
	_, err := os.Stat(h.snapshot)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.store("one")
	h.store("two")

	out := h.mustRun("stats")
	assert.Contains(t, out, "Seeds: 2 / 100")
	assert.Contains(t, out, h.snapshot)
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", scoreBar(0))
	assert.Equal(t, "█████░░░░░", scoreBar(0.5))
	assert.Equal(t, "██████████", scoreBar(1))
	assert.Equal(t, "██████████", scoreBar(1.7))
}

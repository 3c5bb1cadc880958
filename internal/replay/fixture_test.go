package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
)

// #region fixture-tests

// TestFixtures replays every fixture under testdata and compares each output
// against the expected one. Any change to tokenization, rounding or the
// sequencer's draw order shows up here.
func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			f, err := LoadFixture(path)
			if err != nil {
				t.Fatalf("LoadFixture: %v", err)
			}
			res, err := ReplayFixture(path, f)
			if err != nil {
				t.Fatalf("ReplayFixture: %v", err)
			}
			for _, m := range res.Mismatches {
				t.Errorf("output %d: expected %q, got %q", m.Index, m.Expected, m.Actual)
			}
		})
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFixture_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFromRunWriteAndReload(t *testing.T) {
	cfg := logging.RunConfig{Order: 1, MaxLength: 10, Count: 2, RecycleThreshold: 1, InitialOnly: true, MaxAttempts: 100}
	entry, err := logging.NewRunEntry("c1", "intervals", 3, "", cfg, []string{"2", "2"})
	if err != nil {
		t.Fatalf("NewRunEntry: %v", err)
	}
	rows := []persist.Row{
		{Key: "^", Next: "2", Count: 1, Probability: 1},
		{Key: "2", Next: "$", Count: 1, Probability: 1},
	}

	f, err := FromRun(entry, rows, 6, "exported")
	if err != nil {
		t.Fatalf("FromRun: %v", err)
	}
	path := filepath.Join(t.TempDir(), "exported.json")
	if err := WriteFixture(path, f); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}

	back, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if back.Domain != "intervals" || back.Order != 1 || len(back.Rows) != 2 {
		t.Fatalf("unexpected fixture: %+v", back)
	}
	if back.Config.Count != 2 || !back.Config.InitialOnly {
		t.Errorf("config lost: %+v", back.Config)
	}

	res, err := ReplayFixture("exported", back)
	if err != nil {
		t.Fatalf("ReplayFixture: %v", err)
	}
	if !res.Passed() {
		t.Fatalf("expected exported fixture to replay, got %+v", res.Mismatches)
	}
}

// #endregion fixture-tests

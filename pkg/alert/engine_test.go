package alert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anomalab/ids-server/pkg/ids"
	"github.com/anomalab/ids-server/pkg/sim"
)

// TestEngineRun drives the interactive loop with scripted input.
// The live statistics carry a zero deviation so the generated values are
// exactly the mean, which makes the daily scores deterministic.
func TestEngineRun(t *testing.T) {

	dir := t.TempDir()

	statsPath := filepath.Join(dir, "Stats2.txt")
	err := os.WriteFile(statsPath, []byte("1\nLogins:9:0:\n"), 0644)
	if err != nil {
		t.Fatalf("Failed to write the live statistics file: %v", err)
	}

	engine := &Engine{
		Events: ids.EventSet{
			{Name: "Logins", Type: ids.EventDiscrete, Min: 0, Max: 10, Weight: 2},
		},
		Baseline:        ids.StatSet{"Logins": {Mean: 4, StdDev: 1}},
		ThresholdFactor: 2,
		LiveLogsPath:    filepath.Join(dir, "live_logs.txt"),
		Gen:             sim.NewGenerator(42),
		In:              strings.NewReader(statsPath + "\n2\nq\n"),
		Out:             &strings.Builder{},
	}

	if err = engine.Run(); err != nil {
		t.Fatalf("Engine run failed: %v", err)
	}

	out := engine.Out.(*strings.Builder).String()
	// threshold = 2 * 2, score = 2 * |9 - 4| / 1 = 10 on both days
	if !strings.Contains(out, "Anomaly Detection Threshold: 4") {
		t.Fatalf("Missing threshold line in output:\n%s", out)
	}
	if !strings.Contains(out, "Day 1: ALERT - Anomaly Score = 10") {
		t.Fatalf("Missing day 1 alert in output:\n%s", out)
	}
	if !strings.Contains(out, "Day 2: ALERT - Anomaly Score = 10") {
		t.Fatalf("Missing day 2 alert in output:\n%s", out)
	}

	// the live journal is written alongside
	if _, err = os.Stat(engine.LiveLogsPath); err != nil {
		t.Fatalf("Live journal not written: %v", err)
	}
}

// TestEngineRunBadInput checks recovery from operator mistakes
func TestEngineRunBadInput(t *testing.T) {

	dir := t.TempDir()

	statsPath := filepath.Join(dir, "Stats2.txt")
	err := os.WriteFile(statsPath, []byte("1\nLogins:4:0:\n"), 0644)
	if err != nil {
		t.Fatalf("Failed to write the live statistics file: %v", err)
	}

	// a missing file, then a valid one; a bad day count, then a valid one
	input := "no_such_file.txt\n" + statsPath + "\nzero\n1\nq\n"

	engine := &Engine{
		Events: ids.EventSet{
			{Name: "Logins", Type: ids.EventDiscrete, Min: 0, Max: 10, Weight: 2},
		},
		Baseline:        ids.StatSet{"Logins": {Mean: 4, StdDev: 1}},
		ThresholdFactor: 2,
		LiveLogsPath:    filepath.Join(dir, "live_logs.txt"),
		Gen:             sim.NewGenerator(42),
		In:              strings.NewReader(input),
		Out:             &strings.Builder{},
	}

	if err = engine.Run(); err != nil {
		t.Fatalf("Engine run failed: %v", err)
	}

	out := engine.Out.(*strings.Builder).String()
	if !strings.Contains(out, "Error:") {
		t.Fatalf("Expected error messages in output:\n%s", out)
	}
	if !strings.Contains(out, "Day 1: OK - Anomaly Score = 0") {
		t.Fatalf("Missing day 1 report in output:\n%s", out)
	}
}

// TestEngineRunQuit checks that 'q' exits before any generation
func TestEngineRunQuit(t *testing.T) {

	engine := &Engine{
		Events: ids.EventSet{
			{Name: "Logins", Type: ids.EventDiscrete, Min: 0, Max: 10, Weight: 1},
		},
		Baseline:        ids.StatSet{"Logins": {Mean: 4, StdDev: 1}},
		ThresholdFactor: 2,
		LiveLogsPath:    filepath.Join(t.TempDir(), "live_logs.txt"),
		Gen:             sim.NewGenerator(1),
		In:              strings.NewReader("q\n"),
		Out:             &strings.Builder{},
	}

	if err := engine.Run(); err != nil {
		t.Fatalf("Engine run failed: %v", err)
	}
	if _, err := os.Stat(engine.LiveLogsPath); !os.IsNotExist(err) {
		t.Fatal("No live journal expected after an immediate quit")
	}
}

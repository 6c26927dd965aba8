package ids

import (
	"testing"
)

// TestParseStats checks the parsing of a well-formed statistics file
func TestParseStats(t *testing.T) {

	path := writeTempFile(t, "Stats.txt", `2
Logins:4:1.5:
Time online:150.5:25.00:
`)

	stats, err := ParseStats(path)
	if err != nil {
		t.Fatalf("Failed to parse the statistics file: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Incorrect statistics count: %d", len(stats))
	}
	if stats["Logins"].Mean != 4 || stats["Logins"].StdDev != 1.5 {
		t.Fatalf("Incorrect Logins profile: %+v", stats["Logins"])
	}
	if stats["Time online"].Mean != 150.5 {
		t.Fatalf("Incorrect Time online profile: %+v", stats["Time online"])
	}
}

// TestParseStatsErrors checks the error cases of the statistics parser
func TestParseStatsErrors(t *testing.T) {

	path := writeTempFile(t, "bad_count.txt", "two\nLogins:4:1.5:\n")
	if _, err := ParseStats(path); err == nil {
		t.Fatal("Expected an error on a non-integer first line")
	}

	path = writeTempFile(t, "bad_total.txt", "3\nLogins:4:1.5:\n")
	if _, err := ParseStats(path); err == nil {
		t.Fatal("Expected an error on a count mismatch")
	}

	path = writeTempFile(t, "bad_value.txt", "1\nLogins:four:1.5:\n")
	if _, err := ParseStats(path); err == nil {
		t.Fatal("Expected an error on a non-numeric mean")
	}
}

// TestStatSetCovers checks the coverage control of a statistics set
func TestStatSetCovers(t *testing.T) {

	events := EventSet{
		{Name: "Logins", Type: EventDiscrete, Min: 0, Max: 10, Weight: 2},
		{Name: "Emails sent", Type: EventDiscrete, Min: 0, Max: 50, Weight: 1},
	}
	stats := StatSet{"Logins": {Mean: 4, StdDev: 1.5}}

	if err := stats.Covers(events); err == nil {
		t.Fatal("Expected a coverage error for the missing event")
	}

	stats["Emails sent"] = StatProfile{Mean: 10, StdDev: 3}
	if err := stats.Covers(events); err != nil {
		t.Fatalf("Unexpected coverage error: %v", err)
	}
}

package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mpfeed/models"
)

func TestSearchResultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "search_results.json")
	in := models.SearchResults{
		ResearchList: []models.Article{
			{MPName: "Anna", Title: "Climate bill", URL: "https://e/a", SourceName: "Wire"},
		},
		MPCount:    5,
		SearchDate: "2025-09-01",
		Timeframe:  "8 months",
	}

	if err := SaveSearchResults(path, in); err != nil {
		t.Fatalf("SaveSearchResults: %v", err)
	}
	out, err := LoadSearchResults(path)
	if err != nil {
		t.Fatalf("LoadSearchResults: %v", err)
	}

	if out.MPCount != 5 || out.Timeframe != "8 months" || len(out.ResearchList) != 1 {
		t.Errorf("round trip = %+v", out)
	}
	if out.ResearchList[0].Title != "Climate bill" {
		t.Errorf("article = %+v", out.ResearchList[0])
	}

	// artifact should be readable by humans
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Error("search results not indented")
	}
}

func TestLoadSearchResultsMissing(t *testing.T) {
	_, err := LoadSearchResults(filepath.Join(t.TempDir(), "none.json"))
	if err == nil || !strings.Contains(err.Error(), "--search-only") {
		t.Fatalf("err = %v, want instructive hint", err)
	}
}

func TestLoadSearchResultsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("not json"), 0o644)
	if _, err := LoadSearchResults(path); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary_report.md")
	if err := SaveReport(path, "# Report\n\nBody."); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if got != "# Report\n\nBody." {
		t.Errorf("report = %q", got)
	}
}

func TestLoadReportMissing(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "none.md"))
	if err == nil || !strings.Contains(err.Error(), "--analyze-only") {
		t.Fatalf("err = %v, want instructive hint", err)
	}
}

func TestLoadMPList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_list.json")
	os.WriteFile(path, []byte(`[{"name": "Anna Kowalska", "country": "Poland"}]`), 0o644)

	mps, err := LoadMPList(path)
	if err != nil {
		t.Fatalf("LoadMPList: %v", err)
	}
	if len(mps) != 1 || mps[0].Name != "Anna Kowalska" {
		t.Errorf("mps = %+v", mps)
	}
}

func TestLoadMPListEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_list.json")
	os.WriteFile(path, []byte(`[]`), 0o644)
	if _, err := LoadMPList(path); err == nil {
		t.Fatal("expected error for empty MP list")
	}
}

func TestLoadMPListUnnamedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mp_list.json")
	os.WriteFile(path, []byte(`[{"country": "Poland"}]`), 0o644)
	if _, err := LoadMPList(path); err == nil {
		t.Fatal("expected error for entry without name")
	}
}

func TestDateRange(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	got := DateRange(now, 8)
	if got != "Jan 01 - Sep 01, 2025" {
		t.Errorf("DateRange = %q, want Jan 01 - Sep 01, 2025", got)
	}

	// start month abbreviation must not inherit the end month
	got = DateRange(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 3)
	if got != "Nov 10 - Feb 10, 2026" {
		t.Errorf("DateRange = %q, want Nov 10 - Feb 10, 2026", got)
	}
}

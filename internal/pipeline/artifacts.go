package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mpfeed/models"
)

// SaveSearchResults persists the phase-1 artifact as indented JSON so it can
// be inspected or reused by a later analyze-only run.
func SaveSearchResults(path string, results models.SearchResults) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding search results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing search results: %w", err)
	}
	return nil
}

// LoadSearchResults reads a previously saved phase-1 artifact.
func LoadSearchResults(path string) (models.SearchResults, error) {
	var results models.SearchResults
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return results, fmt.Errorf("search results not found at %s: run with --search-only (or a full run) first", path)
		}
		return results, fmt.Errorf("reading search results: %w", err)
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return results, fmt.Errorf("decoding search results from %s: %w", path, err)
	}
	return results, nil
}

// SaveReport persists the phase-2 Markdown report.
func SaveReport(path, report string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// LoadReport reads a previously saved phase-2 report.
func LoadReport(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("report not found at %s: run with --analyze-only (or a full run) first", path)
		}
		return "", fmt.Errorf("reading report: %w", err)
	}
	return string(data), nil
}

// LoadMPList reads the monitored MP roster from the knowledge file.
func LoadMPList(path string) ([]models.MP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MP list from %s: %w", path, err)
	}
	var mps []models.MP
	if err := json.Unmarshal(data, &mps); err != nil {
		return nil, fmt.Errorf("decoding MP list from %s: %w", path, err)
	}
	if len(mps) == 0 {
		return nil, fmt.Errorf("MP list at %s is empty", path)
	}
	for i, mp := range mps {
		if mp.Name == "" {
			return nil, fmt.Errorf("MP list entry %d has no name", i)
		}
	}
	return mps, nil
}

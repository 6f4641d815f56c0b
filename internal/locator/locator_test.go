package locator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/pkg/errors"
)

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestResolver_HintIsAuthoritative(t *testing.T) {
	root := t.TempDir()
	hinted := filepath.Join(root, "2025", "September")
	mustMkdir(t, hinted)
	// A newer-looking candidate exists, but the hint must win.
	mustMkdir(t, filepath.Join(root, "2026", "January"))

	resolver := NewResolver(root)
	res, err := resolver.Resolve(&Hint{
		Period:   models.Period{Year: "2025", Month: "September"},
		DataPath: hinted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Path != hinted {
		t.Errorf("Path = %s, want %s", res.Path, hinted)
	}
	if res.Tier != TierHint {
		t.Errorf("Tier = %s, want %s", res.Tier, TierHint)
	}
}

func TestResolver_RelativeHintResolvedAgainstRoot(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "2025", "September"))

	resolver := NewResolver(root)
	res, err := resolver.Resolve(&Hint{DataPath: filepath.Join("2025", "September")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(root, "2025", "September")
	if res.Path != want {
		t.Errorf("Path = %s, want %s", res.Path, want)
	}
}

func TestResolver_BadHintFailsWithoutFallthrough(t *testing.T) {
	root := t.TempDir()
	// Auto-detection would succeed, but a bad hint must fail immediately.
	mustMkdir(t, filepath.Join(root, "2025", "September"))

	resolver := NewResolver(root)
	_, err := resolver.Resolve(&Hint{DataPath: filepath.Join(root, "2025", "October")})
	if err == nil {
		t.Fatal("expected error for nonexistent hint")
	}

	if !errors.HasCode(err, errors.CodeHintNotFound) {
		t.Errorf("expected code %s, got %v", errors.CodeHintNotFound, err)
	}
}

func TestResolver_AutoDetectNewestYearLatestMonth(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "2024", "December"))
	august := filepath.Join(root, "2025", "August")
	september := filepath.Join(root, "2025", "September")
	mustMkdir(t, august)
	mustMkdir(t, september)

	// Make September the most recently modified month directory.
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(august, past, past); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	resolver := NewResolver(root)
	res, err := resolver.Resolve(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Path != september {
		t.Errorf("Path = %s, want %s", res.Path, september)
	}
	if res.Tier != TierAutoDetect {
		t.Errorf("Tier = %s, want %s", res.Tier, TierAutoDetect)
	}
	if res.Period.Year != "2025" || res.Period.Month != "September" {
		t.Errorf("Period = %+v, want 2025 September", res.Period)
	}
}

func TestResolver_MissingRoot(t *testing.T) {
	resolver := NewResolver(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := resolver.Resolve(nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.HasCode(err, errors.CodeRootMissing) {
		t.Errorf("expected code %s, got %v", errors.CodeRootMissing, err)
	}
}

func TestResolver_EmptyRootExhaustsCandidates(t *testing.T) {
	root := t.TempDir()

	resolver := NewResolver(root)
	_, err := resolver.Resolve(nil)
	if err == nil {
		t.Fatal("expected error for root with no year directories")
	}
	if !errors.HasCode(err, errors.CodeNoPeriodCandidates) {
		t.Errorf("expected code %s, got %v", errors.CodeNoPeriodCandidates, err)
	}
}

func TestResolver_YearWithNoMonths(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "2025"))

	resolver := NewResolver(root)
	_, err := resolver.Resolve(nil)
	if err == nil {
		t.Fatal("expected error for year with no month directories")
	}
	if !errors.HasCode(err, errors.CodeNoPeriodCandidates) {
		t.Errorf("expected code %s, got %v", errors.CodeNoPeriodCandidates, err)
	}

	// The failure must carry the full path trail.
	reportErr, ok := errors.AsReportError(err)
	if !ok {
		t.Fatal("expected a taxonomy error")
	}
	attempted, ok := reportErr.Context["attempted_paths"].([]string)
	if !ok || len(attempted) < 2 {
		t.Errorf("expected at least root and year in attempted paths, got %v", reportErr.Context["attempted_paths"])
	}
}

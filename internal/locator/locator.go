// Package locator resolves the period input directory for a run.
//
// Resolution follows a strict three-tier policy: an externally-supplied path
// hint is authoritative when present; otherwise the newest year directory
// under the data root is selected, then the most recently modified month
// directory inside it; when both fail the error names every path that was
// tried. A non-empty hint that does not exist fails immediately and never
// falls through to auto-detection.
package locator

import (
	"os"
	"path/filepath"
	"sort"

	"trial-balance-reporter/internal/models"
	"trial-balance-reporter/pkg/errors"
	"trial-balance-reporter/pkg/logger"
)

// Tier identifies which resolution tier produced the result
type Tier string

const (
	// TierHint means the externally-supplied path was used
	TierHint Tier = "hint"
	// TierAutoDetect means the newest year/month directories were selected
	TierAutoDetect Tier = "auto-detect"
)

// Hint is the optional structured input supplied by the caller: a period and
// an absolute or root-relative data path. Consumed read-only.
type Hint struct {
	Period   models.Period
	DataPath string
}

// Resolution is the outcome of a successful resolve: exactly one validated
// absolute directory plus the tier that produced it, so callers can log
// which tier won without inspecting error strings.
type Resolution struct {
	Path   string
	Period models.Period
	Tier   Tier
}

// Resolver locates the period directory under a data root
type Resolver struct {
	root   string
	logger logger.Logger
}

// NewResolver creates a Resolver for the given data root
func NewResolver(root string) *Resolver {
	return &Resolver{
		root:   root,
		logger: logger.GetGlobalLogger().WithComponent("locator"),
	}
}

// Resolve applies the three-tier policy. A nil hint or a hint with an empty
// DataPath enables auto-detection; a non-empty DataPath is authoritative.
func (r *Resolver) Resolve(hint *Hint) (*Resolution, error) {
	var attempted []string

	if hint != nil && hint.DataPath != "" {
		path := hint.DataPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.root, path)
		}
		attempted = append(attempted, path)

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			r.logger.WithField("path", path).Error("Configured period path does not exist")
			return nil, errors.ResolutionError(errors.CodeHintNotFound, attempted, err)
		}

		r.logger.WithFields(logger.Fields{
			"path": path,
			"tier": string(TierHint),
		}).Info("Resolved period directory from configured path")

		return &Resolution{Path: path, Period: hint.Period, Tier: TierHint}, nil
	}

	attempted = append(attempted, r.root)
	if info, err := os.Stat(r.root); err != nil || !info.IsDir() {
		r.logger.WithField("root", r.root).Error("Data root does not exist")
		return nil, errors.ResolutionError(errors.CodeRootMissing, attempted, nil)
	}

	year, yearPath, err := r.newestYearDir()
	if err != nil {
		return nil, errors.ResolutionError(errors.CodeNoPeriodCandidates, attempted, err)
	}
	attempted = append(attempted, yearPath)

	month, monthPath, err := r.latestModifiedDir(yearPath)
	if err != nil {
		return nil, errors.ResolutionError(errors.CodeNoPeriodCandidates, attempted, err)
	}

	r.logger.WithFields(logger.Fields{
		"path":  monthPath,
		"year":  year,
		"month": month,
		"tier":  string(TierAutoDetect),
	}).Info("Auto-detected period directory")

	return &Resolution{
		Path:   monthPath,
		Period: models.Period{Year: year, Month: month},
		Tier:   TierAutoDetect,
	}, nil
}

// newestYearDir returns the lexicographically greatest subdirectory of the
// root; year folder names sort correctly as strings.
func (r *Resolver) newestYearDir() (string, string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return "", "", err
	}

	var years []string
	for _, entry := range entries {
		if entry.IsDir() {
			years = append(years, entry.Name())
		}
	}
	if len(years) == 0 {
		return "", "", os.ErrNotExist
	}

	sort.Strings(years)
	year := years[len(years)-1]
	return year, filepath.Join(r.root, year), nil
}

// latestModifiedDir returns the subdirectory with the most recent
// modification time.
func (r *Resolver) latestModifiedDir(parent string) (string, string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", "", err
	}

	var (
		bestName string
		found    bool
	)
	var bestMod int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime().UnixNano()
		if !found || mod > bestMod {
			bestName = entry.Name()
			bestMod = mod
			found = true
		}
	}
	if !found {
		return "", "", os.ErrNotExist
	}

	return bestName, filepath.Join(parent, bestName), nil
}

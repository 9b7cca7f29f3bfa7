package pipeline

import (
	"regexp"
	"time"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// productionPatterns are the filename patterns the live extraction system
// already handles. This pipeline exists for everything else, so the filter
// logic is inverted: a file is a candidate precisely when production would
// reject it.
var productionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^UW[ _-]?Model[ _-]?v\d+.*\.xlsx?$`),
	regexp.MustCompile(`(?i)^Underwriting[ _-]Model[ _-]\d{4}.*\.xlsx?$`),
}

// productionCutoff is the earliest modified date the live system's date
// filter accepts.
var productionCutoff = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// CandidateFilter accepts files the production naming/date filter rejects.
type CandidateFilter struct {
	Patterns []*regexp.Regexp
	Cutoff   time.Time
}

// NewCandidateFilter returns the filter with the production rules baked in.
func NewCandidateFilter() *CandidateFilter {
	return &CandidateFilter{Patterns: productionPatterns, Cutoff: productionCutoff}
}

// Accept reports whether the file should enter this pipeline: true when the
// production filter would NOT pick it up.
func (f *CandidateFilter) Accept(fd model.FileDescriptor) bool {
	return !f.productionAccepts(fd)
}

func (f *CandidateFilter) productionAccepts(fd model.FileDescriptor) bool {
	if fd.ModifiedDate.Before(f.Cutoff) {
		return false
	}
	for _, p := range f.Patterns {
		if p.MatchString(fd.Name) {
			return true
		}
	}
	return false
}

// dedupe merges candidates that share (size, modified-date). Files with
// identical size and date are assumed to be copies of the same document
// unless their content hashes prove otherwise, in which case both survive.
func dedupe(files []model.FileDescriptor) (kept []model.FileDescriptor, removed int) {
	type key struct {
		size int64
		mod  int64
	}
	seen := make(map[key][]model.FileDescriptor)

	for _, fd := range files {
		k := key{size: fd.Size, mod: fd.ModifiedDate.Unix()}
		prior := seen[k]
		duplicate := false
		for _, p := range prior {
			if p.ContentHash == "" || fd.ContentHash == "" || p.ContentHash == fd.ContentHash {
				duplicate = true
				break
			}
		}
		if duplicate {
			removed++
			continue
		}
		seen[k] = append(seen[k], fd)
		kept = append(kept, fd)
	}
	return kept, removed
}

// BatchInfo describes how discovery partitioned an oversized candidate set.
type BatchInfo struct {
	BatchSize   int `json:"batch_size"`
	BatchCount  int `json:"batch_count"`
	LastBatchOf int `json:"last_batch_of"`
}

// partition splits candidates into batches of at most ceiling files. A
// candidate count within the ceiling reports no batch metadata.
func partition(files []model.FileDescriptor, ceiling int) ([][]model.FileDescriptor, *BatchInfo) {
	if ceiling <= 0 || len(files) <= ceiling {
		return [][]model.FileDescriptor{files}, nil
	}
	var batches [][]model.FileDescriptor
	for start := 0; start < len(files); start += ceiling {
		end := start + ceiling
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches, &BatchInfo{
		BatchSize:   ceiling,
		BatchCount:  len(batches),
		LastBatchOf: len(batches[len(batches)-1]),
	}
}

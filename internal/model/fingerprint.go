package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// PopulationStatus classifies how much real content a file carries.
type PopulationStatus string

const (
	// PopulationPopulated means the file has at least the configured
	// minimum of non-blank cells.
	PopulationPopulated PopulationStatus = "populated"
	// PopulationSparse means the file has some content but fewer
	// non-blank cells than the minimum.
	PopulationSparse PopulationStatus = "sparse"
	// PopulationEmpty means the file contains no non-blank cells at all
	// (a blank template).
	PopulationEmpty PopulationStatus = "empty"
	// PopulationError means the file could not be opened or parsed.
	PopulationError PopulationStatus = "error"
)

// SheetFingerprint is a structural summary of one worksheet: dimensions plus
// the header-row and first-column label sets, which together identify the
// layout without comparing every cell.
type SheetFingerprint struct {
	Name               string   `json:"name"`
	RowCount           int      `json:"row_count"`
	ColCount           int      `json:"col_count"`
	HeaderLabels       []string `json:"header_labels"`
	ColALabels         []string `json:"col_a_labels"`
	PopulatedCellCount int      `json:"populated_cell_count"`
}

// Signature returns a deterministic digest over the sheet name and its label
// sets. Labels are sorted first, so two sheets with the same labels in a
// different order produce the same signature.
func (s SheetFingerprint) Signature() string {
	headers := append([]string(nil), s.HeaderLabels...)
	colA := append([]string(nil), s.ColALabels...)
	sort.Strings(headers)
	sort.Strings(colA)

	h := sha256.New()
	h.Write([]byte(s.Name))
	h.Write([]byte{0})
	for _, l := range headers {
		h.Write([]byte(l))
		h.Write([]byte{1})
	}
	h.Write([]byte{0})
	for _, l := range colA {
		h.Write([]byte(l))
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileFingerprint is a structural summary of one workbook file. Created once
// per discovered candidate and never mutated; re-fingerprinting produces a
// fresh value.
type FileFingerprint struct {
	FilePath            string             `json:"file_path"`
	FileName            string             `json:"file_name"`
	FileSize            int64              `json:"file_size"`
	ContentHash         string             `json:"content_hash"`
	SheetCount          int                `json:"sheet_count"`
	Sheets              []SheetFingerprint `json:"sheets"`
	TotalPopulatedCells int                `json:"total_populated_cells"`
	Status              PopulationStatus   `json:"population_status"`
	Error               string             `json:"error,omitempty"`
}

// CombinedSignature is the file-level structural identity: the sorted,
// pipe-joined sheet signatures. Sorting makes it independent of sheet order,
// so two files whose sheets match as a multiset compare equal.
func (f FileFingerprint) CombinedSignature() string {
	sigs := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		sigs[i] = s.Signature()
	}
	sort.Strings(sigs)
	return strings.Join(sigs, "|")
}

// SheetByName returns the sheet fingerprint with the given name, or nil.
func (f FileFingerprint) SheetByName(name string) *SheetFingerprint {
	for i := range f.Sheets {
		if f.Sheets[i].Name == name {
			return &f.Sheets[i]
		}
	}
	return nil
}

// SheetNames returns the names of all sheets in file order.
func (f FileFingerprint) SheetNames() []string {
	names := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		names[i] = s.Name
	}
	return names
}

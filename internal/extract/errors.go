package extract

// ErrorCategory classifies a per-field extraction failure. Every category
// resolves to the missing-value sentinel; none of them aborts the batch.
type ErrorCategory string

const (
	ErrMissingSheet   ErrorCategory = "missing_sheet"
	ErrInvalidAddress ErrorCategory = "invalid_cell_address"
	ErrCellNotFound   ErrorCategory = "cell_not_found"
	ErrFormulaError   ErrorCategory = "formula_error"
	ErrTypeMismatch   ErrorCategory = "data_type_mismatch"
	ErrEmptyValue     ErrorCategory = "empty_value"
	ErrParsing        ErrorCategory = "parsing_error"
	ErrFileAccess     ErrorCategory = "file_access_error"
	ErrUnknown        ErrorCategory = "unknown_error"
)

// FieldError records one field's failure with its category and detail.
type FieldError struct {
	FieldName string        `json:"field_name"`
	Category  ErrorCategory `json:"category"`
	Detail    string        `json:"detail,omitempty"`
}

// formulaErrorTokens are the spreadsheet error literals that may surface as
// cell text when the container stores the error as a cached string.
var formulaErrorTokens = map[string]struct{}{
	"#REF!":   {},
	"#VALUE!": {},
	"#DIV/0!": {},
	"#NAME?":  {},
	"#N/A":    {},
	"#NULL!":  {},
	"#NUM!":   {},
}

// missingTokens are text values analysts use as placeholders. They count as
// missing, not as valid text. Compared case-insensitively.
var missingTokens = map[string]struct{}{
	"n/a":     {},
	"na":      {},
	"tbd":     {},
	"tba":     {},
	"-":       {},
	"--":      {},
	"none":    {},
	"pending": {},
	"?":       {},
}

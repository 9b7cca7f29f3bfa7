package model

import "time"

// FileDescriptor is the metadata the document-store crawler reports for one
// remote file. ContentHash is optional: the crawler only computes it when the
// store exposes one cheaply.
type FileDescriptor struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedDate time.Time `json:"modified_date"`
	DealName     string    `json:"deal_name"`
	DealStage    string    `json:"deal_stage,omitempty"`
	ContentHash  string    `json:"content_hash,omitempty"`
}

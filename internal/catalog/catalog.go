package catalog

import (
	"time"
)

// RawRecord is one element of the model listing as returned by the hub API.
// Nothing about its shape is guaranteed.
type RawRecord map[string]any

// ModelRecord is the canonical row stored in the models table.
type ModelRecord struct {
	ModelID      string    `json:"model_id"`
	Author       string    `json:"author"`
	Downloads    int64     `json:"downloads"`
	Likes        int64     `json:"likes"`
	PipelineTag  string    `json:"pipeline_tag"`
	LibraryName  string    `json:"library_name"`
	ModelType    string    `json:"model_type"`
	License      string    `json:"license"`
	Private      bool      `json:"private"`
	LastModified time.Time `json:"last_modified"`
	IsRecent     bool      `json:"is_recent"`
	FetchTime    time.Time `json:"fetch_time"`
}

const (
	DefaultAuthor  = "unknown"
	DefaultLicense = "unknown"

	// RecentWindow is how far back last_modified may be for a model to count as recent.
	RecentWindow = 30 * 24 * time.Hour
)

package model

import "time"

// FetchMeta contains HTTP metadata captured during the document fetch
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Report is the complete output of one document scan: the fragments
// detected on the page and the risk assessment for each one analyzed.
type Report struct {
	Origin            string            `json:"origin"`
	FetchedAt         time.Time         `json:"fetched_at"`
	FetchMeta         FetchMeta         `json:"fetch_meta"`
	FragmentsDetected int               `json:"fragments_detected"`
	FragmentsSkipped  int               `json:"fragments_skipped"` // Inadmissible or already cached
	Results           []*AnalysisResult `json:"results"`
}

// HighestRisk returns the most severe overall level across all results,
// or LevelLow for an empty report.
func (r *Report) HighestRisk() RiskLevel {
	highest := LevelLow
	for _, res := range r.Results {
		if res.Assessment.Overall.Rank() > highest.Rank() {
			highest = res.Assessment.Overall
		}
	}
	return highest
}

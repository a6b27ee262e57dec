// Package analysis produces a viral potential assessment for an uploaded
// video, from a language model when one is reachable and from a
// deterministic heuristic otherwise.
package analysis

// Source identifies where an analysis document came from.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// SegmentHint is a suggested clip window inside the source video.
type SegmentHint struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Document is the normalized analysis result. Every field is always
// populated; consumers never need to nil-check.
type Document struct {
	ViralScore     float64       `json:"viral_score"`
	ContentType    string        `json:"content_type"`
	TargetAudience string        `json:"target_audience"`
	Techniques     []string      `json:"techniques"`
	Factors        []string      `json:"factors"`
	SegmentHints   []SegmentHint `json:"segment_hints"`
	Summary        string        `json:"summary"`
}

// Outcome pairs a usable Document with provenance. Document is valid even
// when Err is set; Err then explains why the fallback was used.
type Outcome struct {
	Document Document
	Source   string
	Err      error
}

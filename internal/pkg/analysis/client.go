package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

const requestTimeout = 90 * time.Second

// Client talks to an OpenAI-compatible chat completions endpoint. A zero
// API key, transport failure, bad status, or unparseable reply all degrade
// to the deterministic fallback; Analyze never returns an unusable outcome.
type Client struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

// NewClient creates an analysis client. model and baseURL fall back to
// sensible defaults when empty.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

// Analyze assesses the viral potential of a video. The request carries the
// filename and duration; the model is asked for a strict JSON document with
// suggested clip windows.
func (c *Client) Analyze(ctx context.Context, filename string, duration float64, tier plans.Tier) Outcome {
	fb := func(err error) Outcome {
		return Outcome{Document: Fallback(duration, tier), Source: SourceFallback, Err: err}
	}

	if c.key == "" {
		return fb(errors.New("analysis: no API key configured"))
	}

	prompt := fmt.Sprintf(
		"You are a short-form video strategist. A video named %q runs %.1f seconds. "+
			"Assess its viral potential and propose up to %d clip windows, each between %.0f and %.0f seconds long, "+
			"within [0, %.1f]. Respond with JSON only.",
		filename, duration,
		plans.MaxSegmentsForDuration(secondsToDuration(duration)),
		plans.MinSegmentDuration.Seconds(),
		plans.MaxSegmentDuration(tier).Seconds(),
		duration,
	)

	payload := map[string]any{
		"model":  c.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "viral_analysis",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"viral_score":     map[string]any{"type": "number"},
						"content_type":    map[string]any{"type": "string"},
						"target_audience": map[string]any{"type": "string"},
						"techniques":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"factors":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"summary":         map[string]any{"type": "string"},
						"segment_hints": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"start_time":  map[string]any{"type": "number"},
									"end_time":    map[string]any{"type": "number"},
									"score":       map[string]any{"type": "number"},
									"description": map[string]any{"type": "string"},
								},
								"required": []string{"start_time", "end_time", "score", "description"},
							},
						},
					},
					"required": []string{"viral_score", "content_type", "target_audience", "techniques", "factors", "summary", "segment_hints"},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fb(fmt.Errorf("analysis: marshal request: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fb(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return fb(fmt.Errorf("analysis: timeout after %s (model=%s)", requestTimeout, c.model))
		}
		return fb(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fb(fmt.Errorf("analysis: status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb))))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fb(err)
	}
	if len(raw.Choices) == 0 {
		return fb(errors.New("analysis: empty choices"))
	}

	clean, err := extractJSONObject(raw.Choices[0].Message.Content)
	if err != nil {
		return fb(err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return fb(fmt.Errorf("analysis: decode document: %w", err))
	}

	sanitizeDocument(&doc, duration)
	return Outcome{Document: doc, Source: SourceModel}
}

// sanitizeDocument clamps model output to the video bounds and drops hints
// that make no sense. An empty result after clamping gets fallback hints so
// the segmenter always has input.
func sanitizeDocument(doc *Document, duration float64) {
	doc.ViralScore = math.Max(0, math.Min(1, doc.ViralScore))
	if doc.ContentType == "" {
		doc.ContentType = "general"
	}

	kept := doc.SegmentHints[:0]
	for _, h := range doc.SegmentHints {
		h.StartTime = math.Max(0, h.StartTime)
		h.EndTime = math.Min(duration, h.EndTime)
		if h.EndTime <= h.StartTime {
			continue
		}
		h.Score = math.Max(0, math.Min(1, h.Score))
		kept = append(kept, h)
	}
	doc.SegmentHints = kept
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("analysis: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("analysis: could not locate JSON object in reply")
}

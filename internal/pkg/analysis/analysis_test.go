package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

func TestFallbackLongVideo(t *testing.T) {
	t.Parallel()

	doc := Fallback(400, plans.TierPremium)
	require.Len(t, doc.SegmentHints, 3)

	assert.Equal(t, 0.0, doc.SegmentHints[0].StartTime)
	assert.Equal(t, 60.0, doc.SegmentHints[0].EndTime)
	assert.InDelta(t, 120.0, doc.SegmentHints[1].StartTime, 1e-9)
	assert.InDelta(t, 280.0, doc.SegmentHints[1].EndTime, 1e-9)
	assert.InDelta(t, 260.0, doc.SegmentHints[2].StartTime, 1e-9)
	assert.Equal(t, 400.0, doc.SegmentHints[2].EndTime)

	assert.Equal(t, 0.95, doc.SegmentHints[0].Score)
	assert.Equal(t, 0.88, doc.SegmentHints[1].Score)
	assert.Equal(t, 0.92, doc.SegmentHints[2].Score)
}

func TestFallbackStandardShortVideo(t *testing.T) {
	t.Parallel()

	doc := Fallback(120, plans.TierStandard)
	require.Len(t, doc.SegmentHints, 1)
	assert.Equal(t, 0.0, doc.SegmentHints[0].StartTime)
	assert.Equal(t, 30.0, doc.SegmentHints[0].EndTime)

	// Shorter than the cue window: the clip window shrinks with it.
	doc = Fallback(18, plans.TierStandard)
	require.Len(t, doc.SegmentHints, 1)
	assert.Equal(t, 18.0, doc.SegmentHints[0].EndTime)
}

func TestFallbackEvenChunks(t *testing.T) {
	t.Parallel()

	// 120s premium: 120/25 = 4 chunks, within the cap of 4.
	doc := Fallback(120, plans.TierPremium)
	require.Len(t, doc.SegmentHints, 4)
	for i, h := range doc.SegmentHints {
		assert.InDelta(t, float64(i)*30, h.StartTime, 1e-9)
		assert.InDelta(t, float64(i+1)*30, h.EndTime, 1e-9)
	}

	// 30s free-high: below two chunks, floor of 2 applies.
	doc = Fallback(30, plans.TierFreeHigh)
	require.Len(t, doc.SegmentHints, 2)
	assert.Equal(t, 15.0, doc.SegmentHints[0].EndTime)
}

func TestFallbackDeterministic(t *testing.T) {
	t.Parallel()

	a := Fallback(247.3, plans.TierFreeHigh)
	b := Fallback(247.3, plans.TierFreeHigh)
	assert.Equal(t, a, b)
}

func TestClientNoKeyUsesFallback(t *testing.T) {
	t.Parallel()

	c := NewClient("", "", "")
	out := c.Analyze(context.Background(), "clip.mp4", 90, plans.TierStandard)
	assert.Equal(t, SourceFallback, out.Source)
	assert.Error(t, out.Err)
	assert.NotEmpty(t, out.Document.SegmentHints)
}

func TestClientParsesModelReply(t *testing.T) {
	t.Parallel()

	doc := Document{
		ViralScore:     0.81,
		ContentType:    "tutorial",
		TargetAudience: "developers",
		Techniques:     []string{"hook"},
		Factors:        []string{"novelty"},
		Summary:        "strong opener",
		SegmentHints: []SegmentHint{
			{StartTime: 5, EndTime: 35, Score: 0.9, Description: "intro"},
			{StartTime: -10, EndTime: 500, Score: 1.4, Description: "overshoot"},
			{StartTime: 50, EndTime: 40, Score: 0.5, Description: "inverted"},
		},
	}
	content, err := json.Marshal(doc)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```json\n" + string(content) + "\n```"}},
			},
		}
		json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model", srv.URL)
	out := c.Analyze(context.Background(), "clip.mp4", 120, plans.TierPremium)

	require.NoError(t, out.Err)
	assert.Equal(t, SourceModel, out.Source)
	assert.Equal(t, 0.81, out.Document.ViralScore)

	// Out-of-range hints are clamped, inverted ones dropped.
	require.Len(t, out.Document.SegmentHints, 2)
	assert.Equal(t, 0.0, out.Document.SegmentHints[1].StartTime)
	assert.Equal(t, 120.0, out.Document.SegmentHints[1].EndTime)
	assert.Equal(t, 1.0, out.Document.SegmentHints[1].Score)
}

func TestClientServerErrorUsesFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", "", srv.URL)
	out := c.Analyze(context.Background(), "clip.mp4", 60, plans.TierFreeHigh)
	assert.Equal(t, SourceFallback, out.Source)
	assert.Error(t, out.Err)
	assert.NotEmpty(t, out.Document.SegmentHints)
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounded by prose", in: "Sure! {\"a\":1} there you go", want: `{"a":1}`},
		{name: "empty", in: "   ", wantErr: true},
		{name: "no object", in: "no json here", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractJSONObject(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/internal/pkg/analysis"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
	"github.com/LeTienDat/ViralCut/internal/pkg/quota"
)

type fakeVideoStore struct {
	video *models.VideoUpload
	err   error
}

func (f *fakeVideoStore) GetByUUID(string) (*models.VideoUpload, error) {
	return f.video, f.err
}

func (f *fakeVideoStore) Update(v *models.VideoUpload) error {
	f.video = v
	return nil
}

type fakeAnalysisStore struct {
	saved *models.ViralAnalysis
}

func (f *fakeAnalysisStore) Create(a *models.ViralAnalysis) error {
	f.saved = a
	return nil
}

type fakeSegmentStore struct {
	rows []models.VideoSegment
}

func (f *fakeSegmentStore) ReplaceForVideo(_ string, segments []models.VideoSegment) error {
	f.rows = segments
	return nil
}

func (f *fakeSegmentStore) GetByVideoUUID(string) ([]models.VideoSegment, error) {
	out := make([]models.VideoSegment, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSegmentStore) Update(seg *models.VideoSegment) error {
	for i := range f.rows {
		if f.rows[i].Index == seg.Index {
			f.rows[i] = *seg
		}
	}
	return nil
}

type fakeAnalyzer struct {
	outcome analysis.Outcome
}

func (f *fakeAnalyzer) Analyze(context.Context, string, float64, plans.Tier) analysis.Outcome {
	return f.outcome
}

type fakeRenderer struct {
	failIndexes map[int]bool
	calls       int
}

func (f *fakeRenderer) ProbeDuration(context.Context, string) (float64, error) {
	return 0, errors.New("not used")
}

func (f *fakeRenderer) RenderClip(_ context.Context, _ string, _, _ float64, _, out string, _ plans.QualityProfile) error {
	idx := f.calls
	f.calls++
	if f.failIndexes[idx] {
		return fmt.Errorf("encoder crashed on clip %d", idx)
	}
	return os.WriteFile(out, []byte("clip"), 0o644)
}

type fixedTier plans.Tier

func (f fixedTier) TierFor(string) plans.Tier { return plans.Tier(f) }

func testOutcome() analysis.Outcome {
	return analysis.Outcome{
		Source: analysis.SourceModel,
		Document: analysis.Document{
			ViralScore:  0.8,
			ContentType: "entertainment",
			SegmentHints: []analysis.SegmentHint{
				{StartTime: 0, EndTime: 25, Score: 0.9, Description: "intro"},
				{StartTime: 30, EndTime: 55, Score: 0.8, Description: "middle"},
			},
		},
	}
}

func newTestPipeline(t *testing.T, renderer Renderer, tier plans.Tier) (*Pipeline, *fakeVideoStore, *fakeSegmentStore, *MemoryStatusStore) {
	t.Helper()
	videos := &fakeVideoStore{video: &models.VideoUpload{
		UUID:         "vid-1",
		OriginalName: "demo.mp4",
		FilePath:     "/tmp/demo.mp4",
		Duration:     60,
		OwnerEmail:   "owner@example.com",
		Status:       models.UploadStatusUploaded,
	}}
	segments := &fakeSegmentStore{}
	status := NewMemoryStatusStore()
	p := New(videos, &fakeAnalysisStore{}, segments, &fakeAnalyzer{outcome: testOutcome()}, renderer, fixedTier(tier), status, t.TempDir())
	return p, videos, segments, status
}

func TestProcessHappyPath(t *testing.T) {
	p, videos, segments, status := newTestPipeline(t, &fakeRenderer{}, plans.TierPremium)

	require.NoError(t, p.Process(context.Background(), "vid-1"))

	final, err := status.Get("vid-1")
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, final.Stage)
	assert.Equal(t, 100, final.Progress)
	assert.Contains(t, final.Message, "Premium")

	// Progress only ever moves forward.
	last := -1
	for _, s := range status.History {
		assert.GreaterOrEqual(t, s.Progress, last)
		last = s.Progress
	}

	// Every stage was published in order.
	stages := make([]string, 0, len(status.History))
	for _, s := range status.History {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{StageAnalyzing, StageSegmenting, StageCaptioning, StageRendering, StageCompleted}, stages)

	require.Len(t, segments.rows, 2)
	for _, seg := range segments.rows {
		assert.NotEmpty(t, seg.ArtifactPath)
		assert.Equal(t, string(plans.TierPremium), seg.QualityTier)
		assert.NotEmpty(t, seg.CaptionText)
	}

	assert.Equal(t, models.UploadStatusUploaded, videos.video.Status)
}

func TestProcessPartialRenderStillCompletes(t *testing.T) {
	renderer := &fakeRenderer{failIndexes: map[int]bool{0: true}}
	p, _, segments, status := newTestPipeline(t, renderer, plans.TierFreeHigh)

	require.NoError(t, p.Process(context.Background(), "vid-1"))

	final, err := status.Get("vid-1")
	require.NoError(t, err)
	assert.Equal(t, StageCompleted, final.Stage)

	assert.Empty(t, segments.rows[0].ArtifactPath)
	assert.NotEmpty(t, segments.rows[1].ArtifactPath)
}

func TestProcessAllRendersFailedFails(t *testing.T) {
	renderer := &fakeRenderer{failIndexes: map[int]bool{0: true, 1: true}}
	p, _, _, status := newTestPipeline(t, renderer, plans.TierStandard)

	err := p.Process(context.Background(), "vid-1")
	require.Error(t, err)

	final, getErr := status.Get("vid-1")
	require.NoError(t, getErr)
	assert.Equal(t, StageFailed, final.Stage)
	assert.Equal(t, 0, final.Progress)
	assert.NotEmpty(t, final.Error)
}

func TestProcessMissingVideoFails(t *testing.T) {
	videos := &fakeVideoStore{err: errors.New("record not found")}
	status := NewMemoryStatusStore()
	p := New(videos, &fakeAnalysisStore{}, &fakeSegmentStore{}, &fakeAnalyzer{outcome: testOutcome()}, &fakeRenderer{}, fixedTier(plans.TierStandard), status, t.TempDir())

	require.Error(t, p.Process(context.Background(), "missing"))
	final, err := status.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, StageFailed, final.Stage)
}

func TestEnsureArtifactRerenders(t *testing.T) {
	p, _, segments, _ := newTestPipeline(t, &fakeRenderer{}, plans.TierPremium)
	require.NoError(t, p.Process(context.Background(), "vid-1"))

	seg := segments.rows[0]
	require.NoError(t, os.Remove(seg.ArtifactPath))

	path, err := p.EnsureArtifact(context.Background(), "vid-1", &seg)
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

type reportingTier struct {
	fixedTier
	remaining int
}

func (r reportingTier) Status(string) quota.UsageStatus {
	return quota.UsageStatus{RemainingHQ: r.remaining}
}

func TestCompletionMessageIncludesRemainingAllowance(t *testing.T) {
	t.Parallel()

	resolver := reportingTier{fixedTier: fixedTier(plans.TierFreeHigh), remaining: 1}
	p := New(&fakeVideoStore{}, &fakeAnalysisStore{}, &fakeSegmentStore{}, &fakeAnalyzer{}, &fakeRenderer{}, resolver, NewMemoryStatusStore(), t.TempDir())

	msg := p.completionMessageFor("user@example.com", plans.TierFreeHigh)
	assert.Contains(t, msg, "1 free high-quality uploads left")

	assert.Contains(t, p.completionMessageFor("", plans.TierStandard), "Upgrade to Premium")
}

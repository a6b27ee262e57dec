package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/LeTienDat/ViralCut/internal/pkg/cache"
)

// Cache key format for video processing status
const (
	VideoStatusKeyFormat = "video:status:%s" // Format: video:status:<uuid>
	statusTTL            = 24 * time.Hour
)

// Stage constants for the processing pipeline
const (
	StageQueued     = "queued"
	StageAnalyzing  = "analyzing"
	StageSegmenting = "segmenting"
	StageCaptioning = "captioning"
	StageRendering  = "rendering"
	StageCompleted  = "completed"
	StageFailed     = "failed"
)

// ProgressFor maps a stage to its percent value. A failed run reports zero
// progress regardless of how far it got.
func ProgressFor(stage string) int {
	switch stage {
	case StageQueued:
		return 0
	case StageAnalyzing:
		return 25
	case StageSegmenting:
		return 45
	case StageCaptioning:
		return 65
	case StageRendering:
		return 85
	case StageCompleted:
		return 100
	default:
		return 0
	}
}

// Status is the externally visible processing state of one video.
type Status struct {
	VideoUUID string    `json:"video_uuid"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusStore persists pipeline status between requests.
type StatusStore interface {
	Set(status Status) error
	Get(videoUUID string) (Status, error)
}

// redisStatusStore keeps statuses in the shared cache with a 24 hour TTL.
type redisStatusStore struct{}

// NewStatusStore returns the cache-backed status store.
func NewStatusStore() StatusStore {
	return &redisStatusStore{}
}

func (s *redisStatusStore) Set(status Status) error {
	status.UpdatedAt = time.Now()
	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(VideoStatusKeyFormat, status.VideoUUID)
	return cache.Set(key, string(b), statusTTL)
}

func (s *redisStatusStore) Get(videoUUID string) (Status, error) {
	key := fmt.Sprintf(VideoStatusKeyFormat, videoUUID)
	raw, err := cache.Get(key)
	if err != nil {
		return Status{}, err
	}
	var status Status
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// MemoryStatusStore is an in-process store for tests and local tooling.
type MemoryStatusStore struct {
	mu       sync.Mutex
	statuses map[string]Status
	History  []Status
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[string]Status)}
}

func (m *MemoryStatusStore) Set(status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	status.UpdatedAt = time.Now()
	m.statuses[status.VideoUUID] = status
	m.History = append(m.History, status)
	return nil
}

func (m *MemoryStatusStore) Get(videoUUID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[videoUUID]
	if !ok {
		return Status{}, fmt.Errorf("no status for %s", videoUUID)
	}
	return status, nil
}

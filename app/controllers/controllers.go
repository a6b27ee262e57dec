// Package controllers holds the Fiber HTTP handlers. Handlers are plain
// package-level functions; Setup wires their collaborators once at startup.
package controllers

import (
	"github.com/LeTienDat/ViralCut/internal/pkg/payment"
	"github.com/LeTienDat/ViralCut/internal/pkg/pipeline"
	"github.com/LeTienDat/ViralCut/internal/pkg/quota"
)

// Config carries everything the handlers need. All fields are required
// except BackupEnabled.
type Config struct {
	Pipeline      *pipeline.Pipeline
	Status        pipeline.StatusStore
	Oracle        *quota.Oracle
	Analyzer      pipeline.Analyzer
	Renderer      pipeline.Renderer
	Payments      *payment.Service
	UploadDir     string
	BackupEnabled bool
}

var (
	videoPipeline  *pipeline.Pipeline
	statusStore    pipeline.StatusStore
	tierOracle     *quota.Oracle
	videoAnalyzer  pipeline.Analyzer
	mediaProbe     pipeline.Renderer
	paymentService *payment.Service
	uploadDir      = "./uploads/videos"
	backupEnabled  bool
)

// Setup installs the handler collaborators. Must be called before the
// router is installed.
func Setup(cfg Config) {
	videoPipeline = cfg.Pipeline
	statusStore = cfg.Status
	tierOracle = cfg.Oracle
	videoAnalyzer = cfg.Analyzer
	mediaProbe = cfg.Renderer
	paymentService = cfg.Payments
	if cfg.UploadDir != "" {
		uploadDir = cfg.UploadDir
	}
	backupEnabled = cfg.BackupEnabled
}

// Package api assembles the gin router exposing spec §6's command set
// plus the import-progress WebSocket topic and Prometheus metrics,
// mirroring the teacher's router/middleware/handlers layout.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/phototag/internal/api/handlers"
	"github.com/your-org/phototag/internal/api/ws"
	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/jobmanager"
)

// RouterConfig bundles everything a route handler needs to reach into
// the engine's subsystems.
type RouterConfig struct {
	Store  *catalogstore.Store
	Engine *inference.Engine
	Jobs   *jobmanager.Manager
	Hub    *ws.Hub
	// Thresholds returns the current confidence knobs rerun_auto should
	// classify with; a func rather than a value so config reloads (if
	// ever added) are observed without re-wiring the router.
	Thresholds func() inference.Thresholds
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	systemH := handlers.NewSystemHandler(cfg.Store)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	v1.GET("/ws", cfg.Hub.HandleWS)
	v1.GET("/greet", systemH.Greet)

	importH := handlers.NewImportHandler(cfg.Jobs, cfg.Hub)
	v1.POST("/import_folder", importH.ImportFolder)
	v1.POST("/cancel_import", importH.CancelImport)
	v1.POST("/cancel_import_file", importH.CancelImportFile)
	v1.GET("/is_importing", importH.IsImporting)

	fsH := handlers.NewFSHandler()
	v1.POST("/is_directory", fsH.IsDirectory)
	v1.POST("/show_in_folder", fsH.ShowInFolder)

	photoH := handlers.NewPhotoHandler(cfg.Store, cfg.Engine, cfg.Thresholds)
	v1.POST("/query_photos", photoH.QueryPhotos)
	v1.POST("/photos/:id/manual_tags", photoH.AddManualTag)
	v1.DELETE("/photos/:id/manual_tags", photoH.RemoveManualTag)
	v1.POST("/photos/:id/rerun_auto", photoH.RerunAuto)
	v1.POST("/photos/:id/rating", photoH.SetRating)
	v1.POST("/photos/:id/picked", photoH.TogglePicked)
	v1.POST("/photos/:id/rejected", photoH.ToggleRejected)
	v1.POST("/batch_update_cull", photoH.BatchUpdateCull)
	v1.GET("/smart_views_counts", photoH.GetSmartViewsCounts)
	v1.POST("/export_csv", photoH.ExportCSV)
	v1.GET("/find_duplicates", photoH.FindDuplicates)
	v1.GET("/find_similar", photoH.FindSimilar)

	inferenceH := handlers.NewInferenceHandler(cfg.Engine)
	v1.GET("/inference_status", inferenceH.GetStatus)
	v1.POST("/inference_device", inferenceH.SetDevice)

	return r
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Paths     PathsConfig     `yaml:"paths"`
	Inference InferenceConfig `yaml:"inference"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	// Path is the filesystem location of the single-file catalog database.
	// Empty means resolve relative to the app data directory (internal/paths).
	Path     string `yaml:"path"`
	MaxConns int    `yaml:"max_conns"`
}

type PathsConfig struct {
	// DataDir overrides the resolved app data directory entirely.
	DataDir string `yaml:"data_dir"`
	// ModelsDir, if set, overrides the default "<data>/models" location.
	ModelsDir string `yaml:"models_dir"`
	// BinDir, if set, overrides the default "<data>/bin" location.
	BinDir string `yaml:"bin_dir"`
}

type InferenceConfig struct {
	EnableONNX          bool    `yaml:"enable_onnx"`
	DevicePreference    string  `yaml:"device_preference"`
	SceneModel          string  `yaml:"scene_model"`
	DetectionModel      string  `yaml:"detection_model"`
	FaceModel           string  `yaml:"face_model"`
	PrimaryThreshold    float32 `yaml:"primary_threshold"`
	SecondaryThreshold  float32 `yaml:"secondary_threshold"`
	DetectionConfidence float32 `yaml:"detection_confidence_threshold"`
	DetectionIOU        float32 `yaml:"detection_iou_threshold"`
	FaceMinScore        float32 `yaml:"face_min_score"`
	IntraOpThreads      int     `yaml:"intra_op_threads"`
	InterOpThreads      int     `yaml:"inter_op_threads"`
	GPUPreprocess       bool    `yaml:"gpu_preprocess"`
}

type PipelineConfig struct {
	ExifWorkers      int `yaml:"exif_workers"`
	RenditionWorkers int `yaml:"rendition_workers"`
	HashWorkers      int `yaml:"hash_workers"`
	TagWorkers       int `yaml:"tag_workers"`
	EmbedWorkers     int `yaml:"embed_workers"`
	ExifQueueCap     int `yaml:"exif_queue_cap"`
	ThumbQueueCap    int `yaml:"thumb_queue_cap"`
	HashQueueCap     int `yaml:"hash_queue_cap"`
	TagQueueCap      int `yaml:"tag_queue_cap"`
	EmbedQueueCap    int `yaml:"embed_queue_cap"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file (if present) and applies environment
// variable overrides, then fills in defaults. A missing file is not an
// error: the zero-value config with defaults applied is usable standalone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Inference.EnableONNX = true // yaml.Unmarshal only touches keys present in the document

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Inference.DevicePreference == "" {
		cfg.Inference.DevicePreference = "auto"
	}
	if cfg.Inference.SceneModel == "" {
		cfg.Inference.SceneModel = "scene_classifier.onnx"
	}
	if cfg.Inference.DetectionModel == "" {
		cfg.Inference.DetectionModel = "person_detector.onnx"
	}
	if cfg.Inference.FaceModel == "" {
		cfg.Inference.FaceModel = "face_detector.onnx"
	}
	if cfg.Inference.PrimaryThreshold == 0 {
		cfg.Inference.PrimaryThreshold = 0.70
	}
	if cfg.Inference.SecondaryThreshold == 0 {
		cfg.Inference.SecondaryThreshold = 0.50
	}
	if cfg.Inference.DetectionConfidence == 0 {
		cfg.Inference.DetectionConfidence = 0.25
	}
	if cfg.Inference.DetectionIOU == 0 {
		cfg.Inference.DetectionIOU = 0.45
	}
	if cfg.Inference.FaceMinScore == 0 {
		cfg.Inference.FaceMinScore = 0.75
	}
	if cfg.Pipeline.ExifWorkers == 0 {
		cfg.Pipeline.ExifWorkers = 2
	}
	if cfg.Pipeline.RenditionWorkers == 0 {
		cfg.Pipeline.RenditionWorkers = 2
	}
	if cfg.Pipeline.HashWorkers == 0 {
		cfg.Pipeline.HashWorkers = 2
	}
	if cfg.Pipeline.TagWorkers == 0 {
		cfg.Pipeline.TagWorkers = 1
	}
	if cfg.Pipeline.EmbedWorkers == 0 {
		cfg.Pipeline.EmbedWorkers = 1
	}
	if cfg.Pipeline.ExifQueueCap == 0 {
		cfg.Pipeline.ExifQueueCap = 256
	}
	if cfg.Pipeline.ThumbQueueCap == 0 {
		cfg.Pipeline.ThumbQueueCap = 128
	}
	if cfg.Pipeline.HashQueueCap == 0 {
		cfg.Pipeline.HashQueueCap = 128
	}
	if cfg.Pipeline.TagQueueCap == 0 {
		cfg.Pipeline.TagQueueCap = 64
	}
	if cfg.Pipeline.EmbedQueueCap == 0 {
		cfg.Pipeline.EmbedQueueCap = 64
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHOTO_TAGGER_ENABLE_ONNX"); v != "" {
		cfg.Inference.EnableONNX = isTruthy(v)
	}
	if v := os.Getenv("PHOTO_TAGGER_MODELS_DIR"); v != "" {
		cfg.Paths.ModelsDir = v
	}
	if v := os.Getenv("PHOTO_TAGGER_SCENE_MODEL"); v != "" {
		cfg.Inference.SceneModel = v
	}
	if v := os.Getenv("PHOTO_TAGGER_DETECTION_MODEL"); v != "" {
		cfg.Inference.DetectionModel = v
	}
	if v := os.Getenv("PHOTO_TAGGER_FACE_MODEL"); v != "" {
		cfg.Inference.FaceModel = v
	}
	if v := os.Getenv("PHOTO_TAGGER_GPU_PREPROCESS"); v != "" {
		cfg.Inference.GPUPreprocess = isTruthy(v)
	}
	if v := os.Getenv("PHOTO_TAGGER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PHOTO_TAGGER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func isTruthy(v string) bool {
	switch v {
	case "0", "false", "False", "FALSE", "no", "No":
		return false
	default:
		return true
	}
}

// Package inference drives the scene, object-detection and face ONNX
// models and fuses their outputs into a tag->confidence map.
package inference

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/phototag/internal/observability"
)

// Provider identifies which execution backend actually ran a session.
type Provider string

const (
	ProviderCPU Provider = "cpu"
	ProviderGPU Provider = "gpu"
)

// DevicePreference is the caller's requested backend; the engine may
// still fall back to CPU and record a warning.
type DevicePreference string

const (
	DeviceAuto    DevicePreference = "auto"
	DeviceCPUOnly DevicePreference = "cpu_only"
	DeviceGPUOnly DevicePreference = "gpu_only"
)

// ModelKind names one of the three model slots the engine manages.
type ModelKind string

const (
	ModelScene     ModelKind = "scene"
	ModelDetection ModelKind = "detection"
	ModelFace      ModelKind = "face"
)

// ModelBinding describes how a session's input tensor is laid out, once
// discovered from its declared input shape: [MODULE] 4.C, dim[1]==3 means
// planar (NCHW), dim[3]==3 means interleaved (NHWC), otherwise default
// planar 224x224.
type ModelBinding struct {
	Width  int
	Height int
	Planar bool
}

type session struct {
	kind       ModelKind
	path       string
	provider   Provider
	binding    ModelBinding
	inputName  string
	outputName []string
	dyn        *ort.DynamicAdvancedSession
	mu         sync.Mutex // serializes Run calls: the C session is not safe for concurrent use
}

type sessionKey struct {
	path     string
	provider DevicePreference
	deviceID int
}

// Engine owns the model sessions and exposes the fused tagging operation.
// Sessions are created lazily and cached for the process lifetime.
type Engine struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session
	cache    map[ModelKind]*session

	preference DevicePreference
	gpuWarning string

	sceneLabels     labelVocab
	sceneTagMap     tagMap
	detectionLabels labelVocab
	detectionTagMap tagMap
	sidecarWarned   bool
}

// EnvironmentInit mirrors the teacher's ONNX Runtime init pattern: set the
// shared-library path for the host OS and bring up the global environment
// once before any session is built. Failure is non-fatal; callers keep
// running with inference unavailable (heuristic tags only).
func EnvironmentInit() error {
	ort.SetSharedLibraryPath(sharedLibraryPath())
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime environment: %w", err)
	}
	return nil
}

// EnvironmentDestroy tears down the global ONNX Runtime environment.
func EnvironmentDestroy() {
	_ = ort.DestroyEnvironment()
}

func sharedLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "libonnxruntime.so"
	}
}

// NewEngine constructs an engine with no sessions loaded yet; call
// LoadModel for each available model path.
func NewEngine(preference DevicePreference) *Engine {
	return &Engine{
		sessions:   make(map[sessionKey]*session),
		cache:      make(map[ModelKind]*session),
		preference: preference,
	}
}

// LoadModel builds (or reuses) a session for kind at modelPath, under a
// panic barrier since ONNX Runtime's C bindings can abort the process on
// a malformed model. A failure is logged and leaves that model slot empty;
// the engine keeps running with the remaining models.
func (e *Engine) LoadModel(kind ModelKind, modelPath string, deviceID int) {
	if modelPath == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	key := sessionKey{path: modelPath, provider: e.preference, deviceID: deviceID}
	if s, ok := e.sessions[key]; ok {
		e.cache[kind] = s
		return
	}

	s, err := e.buildSessionSafely(kind, modelPath, deviceID)
	if err != nil {
		slog.Warn("load inference model failed", "kind", kind, "path", modelPath, "error", err)
		return
	}
	e.sessions[key] = s
	e.cache[kind] = s
	slog.Info("loaded inference model", "kind", kind, "path", modelPath, "provider", s.provider)
}

func (e *Engine) buildSessionSafely(kind ModelKind, modelPath string, deviceID int) (s *session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("onnx runtime panicked building session for %s: %v", kind, r)
		}
	}()
	return e.buildSession(kind, modelPath, deviceID)
}

func (e *Engine) buildSession(kind ModelKind, modelPath string, deviceID int) (*session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model io signature: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("model declares no inputs")
	}
	binding := discoverBinding(inputs[0])

	inputNames := []string{inputs[0].Name}
	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}

	wantGPU := e.preference == DeviceAuto || e.preference == DeviceGPUOnly
	provider := ProviderCPU
	var dyn *ort.DynamicAdvancedSession

	if wantGPU {
		dyn, err = newDynamicSession(modelPath, inputNames, outputNames, true, deviceID)
		if err == nil {
			provider = ProviderGPU
		} else {
			msg := fmt.Sprintf("gpu execution provider unavailable for %s, falling back to cpu: %v", kind, err)
			e.gpuWarning = msg
			slog.Warn("gpu execution provider unavailable", "kind", kind, "error", err)
		}
	}

	if dyn == nil {
		dyn, err = newDynamicSession(modelPath, inputNames, outputNames, false, 0)
		if err != nil {
			return nil, fmt.Errorf("build cpu session: %w", err)
		}
		provider = ProviderCPU
	}

	s := &session{
		kind:       kind,
		path:       modelPath,
		provider:   provider,
		binding:    binding,
		inputName:  inputNames[0],
		outputName: outputNames,
		dyn:        dyn,
	}
	if err := warmUp(s); err != nil {
		dyn.Destroy()
		return nil, fmt.Errorf("warm up session: %w", err)
	}
	return s, nil
}

// discoverBinding interprets the declared input shape per the layout rule:
// dim[1]==3 -> planar NCHW, dim[3]==3 -> interleaved NHWC, otherwise
// default to planar 224x224.
func discoverBinding(info ort.InputOutputInfo) ModelBinding {
	dims := info.Dimensions
	if len(dims) == 4 {
		if dims[1] == 3 {
			h, w := dimOrDefault(dims[2], 224), dimOrDefault(dims[3], 224)
			return ModelBinding{Width: w, Height: h, Planar: true}
		}
		if dims[3] == 3 {
			h, w := dimOrDefault(dims[1], 224), dimOrDefault(dims[2], 224)
			return ModelBinding{Width: w, Height: h, Planar: false}
		}
	}
	return ModelBinding{Width: 224, Height: 224, Planar: true}
}

func dimOrDefault(d int64, def int) int {
	if d <= 0 {
		return def
	}
	return int(d)
}

func newDynamicSession(modelPath string, inputNames, outputNames []string, useGPU bool, deviceID int) (*ort.DynamicAdvancedSession, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	if threadConfig.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(threadConfig.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra_op_threads: %w", err)
		}
	}
	if threadConfig.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(threadConfig.InterOpThreads); err != nil {
			return nil, fmt.Errorf("set inter_op_threads: %w", err)
		}
	}

	if useGPU {
		if err := appendGPUExecutionProvider(opts, deviceID); err != nil {
			return nil, err
		}
	}

	dyn, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return dyn, nil
}

// threadConfig holds the process-wide ORT thread tuning, set once from
// config before any session is built.
var threadConfig struct {
	IntraOpThreads int
	InterOpThreads int
}

// SetThreadConfig configures intra/inter-op thread counts applied to
// every session built after this call.
func SetThreadConfig(intraOp, interOp int) {
	threadConfig.IntraOpThreads = intraOp
	threadConfig.InterOpThreads = interOp
}

// warmUp runs one zero-filled inference at the declared input size, per
// §4.C "each newly constructed session is warmed by one zero-filled
// inference of the declared input size."
func warmUp(s *session) error {
	shape := ort.NewShape(1, 3, int64(s.binding.Height), int64(s.binding.Width))
	if !s.binding.Planar {
		shape = ort.NewShape(1, int64(s.binding.Height), int64(s.binding.Width), 3)
	}
	input, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return fmt.Errorf("create warmup tensor: %w", err)
	}
	defer input.Destroy()

	_, err = runSession(s, input)
	return err
}

// runSession executes a session under a panic barrier, returning an error
// (never aborting the process) on ONNX Runtime failure. Output tensors are
// allocated by the runtime per call since output shapes vary by model.
func runSession(s *session, input *ort.Tensor[float32]) (outputs []ort.Value, err error) {
	start := time.Now()
	defer func() {
		observability.InferenceDuration.WithLabelValues(string(s.kind)).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			err = fmt.Errorf("onnx runtime panicked during inference: %v", r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	outValues := make([]ort.Value, len(s.outputName))
	if err := s.dyn.Run([]ort.Value{input}, outValues); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	return outValues, nil
}

// asFloatTensor extracts a float32 tensor from a generic output Value,
// destroying it and returning ok=false if the output isn't float32 data.
func asFloatTensor(v ort.Value) (*ort.Tensor[float32], bool) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok && v != nil {
		_ = v.Destroy()
	}
	return t, ok
}

// Close releases every cached session.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sessions {
		s.dyn.Destroy()
	}
	e.sessions = make(map[sessionKey]*session)
	e.cache = make(map[ModelKind]*session)
}

// Status is the shell-queryable snapshot of engine state.
type Status struct {
	Preference     DevicePreference    `json:"preference"`
	Provider       Provider            `json:"provider"`
	Warning        string              `json:"warning,omitempty"`
	RuntimeVersion string              `json:"runtime_version"`
	PerModel       []ModelStatusDetail `json:"per_model"`
}

type ModelStatusDetail struct {
	Label    ModelKind `json:"label"`
	Provider Provider  `json:"provider"`
}

// Status reports the current inference engine state for get_inference_status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Preference:     e.preference,
		Provider:       ProviderCPU,
		Warning:        e.gpuWarning,
		RuntimeVersion: runtimeVersion(),
	}
	for _, kind := range []ModelKind{ModelScene, ModelDetection, ModelFace} {
		s, ok := e.cache[kind]
		if !ok {
			continue
		}
		st.PerModel = append(st.PerModel, ModelStatusDetail{Label: kind, Provider: s.provider})
		if s.provider == ProviderGPU {
			st.Provider = ProviderGPU
		}
	}
	return st
}

func runtimeVersion() string {
	v := ort.GetVersion()
	if v == "" {
		return "unknown"
	}
	return v
}

// SetDevicePreference updates the requested backend for future LoadModel
// calls. It does not rebuild already-loaded sessions.
func (e *Engine) SetDevicePreference(pref DevicePreference) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preference = pref
}

// Enabled reports whether any model is currently loaded.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache) > 0
}

package inference

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// appendGPUExecutionProvider wires the platform GPU execution provider onto
// session options: DirectML on Windows (this corpus's only GPU backend),
// an error everywhere else so the caller falls back to CPU with a warning.
func appendGPUExecutionProvider(opts *ort.SessionOptions, deviceID int) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("gpu execution provider only available on windows")
	}
	if err := opts.AppendExecutionProviderDirectML(deviceID); err != nil {
		return fmt.Errorf("append directml execution provider: %w", err)
	}
	return nil
}

package rendition

import (
	"image"
	"runtime"
)

// GPUResizeAvailable reports whether the optional GPU compute-shader
// resize path can be used on this host. The CPU path (ResizeLongEdge) is
// always the reference implementation; GPU resize is only ever an
// optimization gated behind this capability check, and any failure falls
// back to CPU silently.
func GPUResizeAvailable(enabled bool) bool {
	return enabled && runtime.GOOS == "windows"
}

// GPUResizeLongEdge attempts the GPU-backed bilinear resize offload. This
// build has no cgo/DirectX bindings wired in, so it always reports
// unavailable; callers must treat a false return as "fall back to
// ResizeLongEdge" per the degrade-to-CPU policy, not as an error.
func GPUResizeLongEdge(img image.Image, longEdge int) (image.Image, bool) {
	return nil, false
}

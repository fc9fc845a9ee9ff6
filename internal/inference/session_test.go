package inference

import (
	"testing"

	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestDiscoverBindingPlanarFromChannelSecond(t *testing.T) {
	info := ort.InputOutputInfo{Dimensions: ort.NewShape(1, 3, 224, 224)}
	b := discoverBinding(info)
	require.True(t, b.Planar)
	require.Equal(t, 224, b.Width)
	require.Equal(t, 224, b.Height)
}

func TestDiscoverBindingInterleavedFromChannelLast(t *testing.T) {
	info := ort.InputOutputInfo{Dimensions: ort.NewShape(1, 416, 416, 3)}
	b := discoverBinding(info)
	require.False(t, b.Planar)
	require.Equal(t, 416, b.Width)
	require.Equal(t, 416, b.Height)
}

func TestDiscoverBindingDefaultsToPlanar224(t *testing.T) {
	info := ort.InputOutputInfo{Dimensions: ort.NewShape(1, 10)}
	b := discoverBinding(info)
	require.True(t, b.Planar)
	require.Equal(t, 224, b.Width)
	require.Equal(t, 224, b.Height)
}

func TestEngineEnabledFalseWithNoModelsLoaded(t *testing.T) {
	e := NewEngine(DeviceAuto)
	require.False(t, e.Enabled())
}

func TestEngineStatusReportsPreference(t *testing.T) {
	e := NewEngine(DeviceCPUOnly)
	st := e.Status()
	require.Equal(t, DeviceCPUOnly, st.Preference)
	require.Empty(t, st.PerModel)
}

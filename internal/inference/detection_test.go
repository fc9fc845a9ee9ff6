package inference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIOUIdenticalBoxesIsOne(t *testing.T) {
	a := detectedBox{x1: 0, y1: 0, x2: 10, y2: 10}
	require.InDelta(t, 1.0, iou(a, a), 1e-6)
}

func TestIOUDisjointBoxesIsZero(t *testing.T) {
	a := detectedBox{x1: 0, y1: 0, x2: 10, y2: 10}
	b := detectedBox{x1: 20, y1: 20, x2: 30, y2: 30}
	require.Equal(t, float32(0), iou(a, b))
}

func TestNMSSuppressesOverlappingLowerScoreBox(t *testing.T) {
	boxes := []detectedBox{
		{classID: 0, score: 0.9, x1: 0, y1: 0, x2: 10, y2: 10},
		{classID: 0, score: 0.5, x1: 1, y1: 1, x2: 11, y2: 11},
	}
	kept := nms(boxes, 0.45)
	require.Len(t, kept, 1)
	require.Equal(t, float32(0.9), kept[0].score)
}

func TestNMSKeepsNonOverlappingBoxes(t *testing.T) {
	boxes := []detectedBox{
		{classID: 0, score: 0.9, x1: 0, y1: 0, x2: 10, y2: 10},
		{classID: 0, score: 0.8, x1: 100, y1: 100, x2: 110, y2: 110},
	}
	kept := nms(boxes, 0.45)
	require.Len(t, kept, 2)
}

func TestClassAwareNMSKeepsOneBoxPerClass(t *testing.T) {
	boxes := []detectedBox{
		{classID: 0, score: 0.9, x1: 0, y1: 0, x2: 10, y2: 10},
		{classID: 1, score: 0.8, x1: 0, y1: 0, x2: 10, y2: 10},
	}
	kept := classAwareNMS(boxes, 0.45)
	require.Len(t, kept, 2)
}

func TestMapDetectionLabelFallbackGroupsAnimals(t *testing.T) {
	require.Equal(t, "animal", mapDetectionLabel("horse", nil))
	require.Equal(t, "vehicle", mapDetectionLabel("car", nil))
	require.Equal(t, "person", mapDetectionLabel("person", nil))
	require.Equal(t, "", mapDetectionLabel("umbrella", nil))
}

func TestDecodeRowsFiltersBelowConfidence(t *testing.T) {
	// 2 rows, 2 classes: cx,cy,w,h,obj,class0,class1; the second row's
	// low objectness puts its score far below 0.9.
	rows := []float32{
		5, 5, 2, 2, 10, 10, -10,
		5, 5, 2, 2, -10, 10, -10,
	}
	boxes := decodeRows(rows, 2, 7, 0.9)
	require.Len(t, boxes, 1)
	require.Equal(t, 0, boxes[0].classID)
}

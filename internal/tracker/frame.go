// Package tracker receives hand landmark frames from an external tracker
// process and feeds them to the gesture classifier.
package tracker

import (
	"encoding/json"
	"fmt"

	"particle-tree/internal/gesture"
)

// Frame is one landmark reading. Timestamp is in milliseconds and is used to
// skip frames that were already classified.
type Frame struct {
	Timestamp int64                `json:"timestamp"`
	Hands     [][]gesture.Landmark `json:"hands"`
}

// ParseFrame decodes a JSON frame. A frame without a timestamp is rejected.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("tracker: decode frame: %w", err)
	}
	if f.Timestamp <= 0 {
		return Frame{}, fmt.Errorf("tracker: frame has no timestamp")
	}
	return f, nil
}

// Source supplies the most recent frame.
type Source interface {
	Latest() (Frame, bool)
}

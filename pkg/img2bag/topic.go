package img2bag

import (
	"path"
	"strings"
)

// FrameID derives the frame from a topic by dropping its last segment:
// "/cam/front" is "cam". A single segment topic is its own frame.
func FrameID(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return path.Join(parts...)
}

// ImageTopic returns the absolute image topic name.
func ImageTopic(topic string) string {
	return "/" + strings.TrimLeft(topic, "/")
}

// CameraInfoTopic returns the calibration topic for a frame. An absolute
// name is used as is.
func CameraInfoTopic(frameID string, name string) string {
	if strings.HasPrefix(name, "/") {
		return path.Clean(name)
	}
	return path.Join("/"+frameID, name)
}

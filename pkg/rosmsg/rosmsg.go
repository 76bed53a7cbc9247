// Package rosmsg holds the ROS 2 messages written by img2bag and their CDR encoding.
package rosmsg

import (
	_ "embed"
)

//go:embed definitions/sensor_msgs_Image.msg
var imageDefinition string

//go:embed definitions/sensor_msgs_CameraInfo.msg
var cameraInfoDefinition string

const (
	ImageType      = "sensor_msgs/msg/Image"
	CameraInfoType = "sensor_msgs/msg/CameraInfo"

	// SerializationFormat is the only serialization written to bags.
	SerializationFormat = "cdr"

	// DistortionPlumbBob is the 5 parameter radial/tangential model.
	DistortionPlumbBob = "plumb_bob"
)

// Definition returns the concatenated ros2msg definition for a message type,
// or "" if the type is unknown.
func Definition(msgType string) string {
	switch msgType {
	case ImageType:
		return imageDefinition
	case CameraInfoType:
		return cameraInfoDefinition
	}
	return ""
}

// Time is builtin_interfaces/Time.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// Header is std_msgs/Header.
type Header struct {
	Stamp   Time
	FrameID string
}

// Image is sensor_msgs/Image.
type Image struct {
	Header      Header
	Height      uint32
	Width       uint32
	Encoding    string
	IsBigendian bool
	Step        uint32
	Data        []byte
}

// RegionOfInterest is sensor_msgs/RegionOfInterest.
type RegionOfInterest struct {
	XOffset   uint32
	YOffset   uint32
	Height    uint32
	Width     uint32
	DoRectify bool
}

// CameraInfo is sensor_msgs/CameraInfo.
type CameraInfo struct {
	Header          Header
	Height          uint32
	Width           uint32
	DistortionModel string
	D               []float64
	K               [9]float64
	R               [9]float64
	P               [12]float64
	BinningX        uint32
	BinningY        uint32
	ROI             RegionOfInterest
}

// MarshalCDR serializes the image as little-endian CDR.
func (m *Image) MarshalCDR() []byte {
	e := newEncoder(64 + len(m.Header.FrameID) + len(m.Encoding) + len(m.Data))
	e.header(m.Header)
	e.uint32(m.Height)
	e.uint32(m.Width)
	e.string(m.Encoding)
	e.bool(m.IsBigendian)
	e.uint32(m.Step)
	e.bytes(m.Data)
	return e.buf
}

// MarshalCDR serializes the camera info as little-endian CDR.
func (m *CameraInfo) MarshalCDR() []byte {
	e := newEncoder(512 + len(m.Header.FrameID))
	e.header(m.Header)
	e.uint32(m.Height)
	e.uint32(m.Width)
	e.string(m.DistortionModel)
	e.float64Seq(m.D)
	e.float64Array(m.K[:])
	e.float64Array(m.R[:])
	e.float64Array(m.P[:])
	e.uint32(m.BinningX)
	e.uint32(m.BinningY)
	e.uint32(m.ROI.XOffset)
	e.uint32(m.ROI.YOffset)
	e.uint32(m.ROI.Height)
	e.uint32(m.ROI.Width)
	e.bool(m.ROI.DoRectify)
	return e.buf
}

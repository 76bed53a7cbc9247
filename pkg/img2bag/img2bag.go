// Package img2bag converts directories of images into ROS 2 bags.
package img2bag

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tstromberg/img2bag/pkg/bag"
	"github.com/tstromberg/img2bag/pkg/rosmsg"
)

// DefaultCameraInfoTopic is the calibration topic name relative to each frame.
const DefaultCameraInfoTopic = "camera_info"

var cameraInfoTopicRe = regexp.MustCompile(`^[A-Za-z/_]+$`)

// Config holds configuration for a conversion. It is copied by New and never
// modified afterwards.
type Config struct {
	// Directories and Topics are paired by position.
	Directories []string
	Topics      []string

	CameraInfoTopic string
	// ImageSize is the resize target, nil to keep the original size.
	ImageSize *Size

	// Start is the first timestamp of every topic, in Unix seconds.
	Start float64
	// Rate is the playback rate in Hz.
	Rate float64

	Recursive bool
	Format    bag.Format
}

// Binding pairs a source directory with its image topic.
type Binding struct {
	Directory string
	Topic     string
}

// Validate checks the configuration. List lengths are checked before the
// filesystem is touched.
func (c *Config) Validate() error {
	if len(c.Directories) != len(c.Topics) {
		return configErrorf("directories", "number of directories and topics must be equal, but got %d directories and %d topics", len(c.Directories), len(c.Topics))
	}

	if len(c.Directories) == 0 {
		return configErrorf("directories", "no directories given")
	}

	for _, t := range c.Topics {
		if strings.Trim(t, "/") == "" {
			return configErrorf("topics", "invalid topic name %q", t)
		}
	}

	if !cameraInfoTopicRe.MatchString(c.CameraInfoTopic) {
		return configErrorf("camera-info-topic", "%q does not match %s", c.CameraInfoTopic, cameraInfoTopicRe)
	}

	// A name may carry images or calibration, never both.
	claims := map[string]string{}
	claim := func(name string, msgType string) error {
		if prev, ok := claims[name]; ok && prev != msgType {
			return configErrorf("topics", "%s would carry both %s and %s", name, prev, msgType)
		}
		claims[name] = msgType
		return nil
	}
	for _, t := range c.Topics {
		if err := claim(ImageTopic(t), rosmsg.ImageType); err != nil {
			return err
		}
		if err := claim(CameraInfoTopic(FrameID(t), c.CameraInfoTopic), rosmsg.CameraInfoType); err != nil {
			return err
		}
	}

	if c.ImageSize != nil {
		if err := c.ImageSize.validate(); err != nil {
			return configErrorf("image-size", "%v", err)
		}
	}

	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) || c.Rate <= 0 {
		return configErrorf("rate", "must be a positive number of Hz, got %v", c.Rate)
	}

	if math.IsNaN(c.Start) || math.IsInf(c.Start, 0) || c.Start <= 0 {
		return configErrorf("timestamp", "must be a positive Unix time, got %v", c.Start)
	}
	// Message headers carry 32-bit seconds.
	if c.Start > math.MaxInt32 {
		return configErrorf("timestamp", "%v is past %d, the last second a message header can hold", c.Start, math.MaxInt32)
	}

	if _, err := bag.ParseFormat(string(c.Format)); err != nil {
		return configErrorf("format", "%v", err)
	}

	for _, d := range c.Directories {
		st, err := os.Stat(d)
		if err != nil {
			return configErrorf("directories", "%v", err)
		}
		if !st.IsDir() {
			return configErrorf("directories", "%s is not a directory", d)
		}
	}

	return nil
}

// bindings returns the directory/topic pairs with absolute directories.
func (c *Config) bindings() ([]Binding, error) {
	bs := make([]Binding, 0, len(c.Directories))
	for i, d := range c.Directories {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("abs: %w", err)
		}
		bs = append(bs, Binding{Directory: abs, Topic: c.Topics[i]})
	}
	return bs, nil
}

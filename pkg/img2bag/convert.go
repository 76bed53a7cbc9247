package img2bag

import (
	"errors"
	"fmt"

	"github.com/tstromberg/img2bag/pkg/bag"
	"github.com/tstromberg/img2bag/pkg/rosmsg"
	"k8s.io/klog/v2"
)

// Writer receives topics and serialized messages.
type Writer interface {
	CreateTopic(t bag.Topic) error
	Write(topic string, data []byte, ts int64) error
}

// TopicSummary reports the outcome for one directory.
type TopicSummary struct {
	Directory       string
	ImageTopic      string
	CameraInfoTopic string
	Found           int
	Written         int
	Skipped         int
}

// Summary reports the outcome of a conversion.
type Summary struct {
	Output string
	Topics []TopicSummary
}

// Written returns the number of images written across all topics.
func (s *Summary) Written() int {
	n := 0
	for _, t := range s.Topics {
		n += t.Written
	}
	return n
}

// Skipped returns the number of files skipped across all topics.
func (s *Summary) Skipped() int {
	n := 0
	for _, t := range s.Topics {
		n += t.Skipped
	}
	return n
}

// Converter turns image directories into bag topics.
type Converter struct {
	c        Config
	bindings []Binding
}

// New validates c and returns a Converter.
func New(c Config) (*Converter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.Directories = append([]string(nil), c.Directories...)
	c.Topics = append([]string(nil), c.Topics...)
	if c.ImageSize != nil {
		sz := *c.ImageSize
		c.ImageSize = &sz
	}

	bs, err := c.bindings()
	if err != nil {
		return nil, err
	}
	return &Converter{c: c, bindings: bs}, nil
}

// Convert writes a bag to output. The bag is finalized only if every topic
// converts; otherwise it is released unfinished.
func (cv *Converter) Convert(output string) (*Summary, error) {
	b, err := bag.Create(output, cv.c.Format)
	if err != nil {
		return nil, fmt.Errorf("create bag: %w", err)
	}

	s, err := cv.ConvertTo(b)
	if err != nil {
		if aerr := b.Abort(); aerr != nil {
			klog.Errorf("abort %s: %v", output, aerr)
		}
		return s, err
	}

	if err := b.Close(); err != nil {
		return s, fmt.Errorf("close bag: %w", err)
	}

	s.Output = output
	klog.Infof("Saved ROS bag file to '%s'", output)
	return s, nil
}

// ConvertTo writes every binding to w, in configured order.
func (cv *Converter) ConvertTo(w Writer) (*Summary, error) {
	s := &Summary{}
	for _, b := range cv.bindings {
		ts, err := cv.convertTopic(w, b)
		s.Topics = append(s.Topics, ts)
		if err != nil {
			return s, fmt.Errorf("topic %s: %w", b.Topic, err)
		}
	}
	return s, nil
}

func register(w Writer, name string, msgType string) error {
	return w.CreateTopic(bag.Topic{
		Name:                name,
		Type:                msgType,
		SerializationFormat: rosmsg.SerializationFormat,
		Definition:          rosmsg.Definition(msgType),
	})
}

func (cv *Converter) convertTopic(w Writer, b Binding) (TopicSummary, error) {
	frameID := FrameID(b.Topic)
	ts := TopicSummary{
		Directory:       b.Directory,
		ImageTopic:      ImageTopic(b.Topic),
		CameraInfoTopic: CameraInfoTopic(frameID, cv.c.CameraInfoTopic),
	}

	if err := register(w, ts.ImageTopic, rosmsg.ImageType); err != nil {
		return ts, err
	}
	if err := register(w, ts.CameraInfoTopic, rosmsg.CameraInfoType); err != nil {
		return ts, err
	}

	seq, err := NewSequencer(cv.c.Start, cv.c.Rate)
	if err != nil {
		return ts, err
	}

	files, err := Find(b.Directory, cv.c.Recursive)
	if err != nil {
		return ts, fmt.Errorf("find: %w", err)
	}
	ts.Found = len(files)
	klog.Infof("Working on topic '%s' with %d files from %s", ts.ImageTopic, len(files), b.Directory)

	for _, path := range files {
		klog.V(1).Infof("Parsing: '%s'", path)

		f, err := load(path, cv.c.ImageSize)
		if err != nil {
			var se *SkipError
			if errors.As(err, &se) {
				klog.Warningf("%v", se)
				ts.Skipped++
				continue
			}
			return ts, err
		}

		stamp := seq.Next()
		f.Stamp(stamp, frameID)

		ns := stamp.UnixNano()
		if err := w.Write(ts.ImageTopic, f.Image.MarshalCDR(), ns); err != nil {
			return ts, err
		}
		if err := w.Write(ts.CameraInfoTopic, f.Info.MarshalCDR(), ns); err != nil {
			return ts, err
		}
		ts.Written++
	}

	klog.Infof("Wrote %d images to '%s' (%d skipped)", ts.Written, ts.ImageTopic, ts.Skipped)
	return ts, nil
}

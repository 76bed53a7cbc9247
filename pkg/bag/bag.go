// Package bag writes rosbag2 directories backed by MCAP or SQLite3 storage.
package bag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

var (
	// ErrExists is returned when the bag directory is already present.
	ErrExists = errors.New("bag already exists")
	// ErrClosed is returned for operations on a finalized or aborted bag.
	ErrClosed = errors.New("bag is closed")
	// ErrUnknownTopic is returned when writing to a topic that was never created.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrTopicType is returned when a topic is registered again with another type.
	ErrTopicType = errors.New("topic registered with a different type")
)

// Format selects the storage plugin.
type Format string

const (
	MCAP    Format = "mcap"
	SQLite3 Format = "sqlite3"
)

// Formats lists the supported storage identifiers.
var Formats = []Format{MCAP, SQLite3}

// ParseFormat parses a storage identifier, case-insensitively.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported storage format %q (want one of %v)", s, Formats)
}

func (f Format) extension() string {
	switch f {
	case MCAP:
		return ".mcap"
	case SQLite3:
		return ".db3"
	}
	return ""
}

// Topic describes a channel in the bag. Definition is the ros2msg text
// stored as the MCAP schema.
type Topic struct {
	Name                string
	Type                string
	SerializationFormat string
	Definition          string
	OfferedQoSProfiles  string
}

// storage is implemented by each backend.
type storage interface {
	createTopic(id int, t Topic) error
	write(id int, data []byte, ts int64) error
	// finalize flushes indexes and closes the file, embedding serialized metadata.
	finalize(md []byte) error
	// abort releases the file without finalizing it.
	abort() error
}

type topicState struct {
	id    int
	topic Topic
	count uint64
}

// Bag is a rosbag2 directory being written. It is not safe for concurrent use.
type Bag struct {
	uri    string
	format Format
	file   string

	st     storage
	topics map[string]*topicState
	order  []*topicState

	count  uint64
	first  int64
	last   int64
	closed bool
}

// Create makes the bag directory at uri and opens its single storage file.
func Create(uri string, f Format) (*Bag, error) {
	if f.extension() == "" {
		return nil, fmt.Errorf("unsupported storage format %q", f)
	}

	if _, err := os.Stat(uri); err == nil {
		return nil, fmt.Errorf("%s: %w", uri, ErrExists)
	}

	if err := os.MkdirAll(uri, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	file := filepath.Base(filepath.Clean(uri)) + "_0" + f.extension()
	path := filepath.Join(uri, file)
	klog.V(2).Infof("opening %s storage at %s", f, path)

	var st storage
	var err error
	switch f {
	case MCAP:
		st, err = newMCAPStorage(path)
	case SQLite3:
		st, err = newSQLiteStorage(path)
	}
	if err != nil {
		if rerr := os.RemoveAll(uri); rerr != nil {
			klog.Warningf("remove %s: %v", uri, rerr)
		}
		return nil, fmt.Errorf("open %s: %w", f, err)
	}

	return &Bag{
		uri:    uri,
		format: f,
		file:   file,
		st:     st,
		topics: map[string]*topicState{},
	}, nil
}

// URI returns the bag directory.
func (b *Bag) URI() string {
	return b.uri
}

// CreateTopic registers a topic. Registering the same name and type twice is
// a no-op.
func (b *Bag) CreateTopic(t Topic) error {
	if b.closed {
		return ErrClosed
	}
	if ts, ok := b.topics[t.Name]; ok {
		if ts.topic.Type != t.Type {
			return fmt.Errorf("%s is %s, not %s: %w", t.Name, ts.topic.Type, t.Type, ErrTopicType)
		}
		return nil
	}

	ts := &topicState{id: len(b.order) + 1, topic: t}
	if err := b.st.createTopic(ts.id, t); err != nil {
		return fmt.Errorf("create topic %s: %w", t.Name, err)
	}
	klog.V(2).Infof("created topic %s [%s]", t.Name, t.Type)

	b.topics[t.Name] = ts
	b.order = append(b.order, ts)
	return nil
}

// Write appends a serialized message at ts nanoseconds since the epoch.
func (b *Bag) Write(topic string, data []byte, ts int64) error {
	if b.closed {
		return ErrClosed
	}
	t, ok := b.topics[topic]
	if !ok {
		return fmt.Errorf("%s: %w", topic, ErrUnknownTopic)
	}

	if err := b.st.write(t.id, data, ts); err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}

	if b.count == 0 || ts < b.first {
		b.first = ts
	}
	if b.count == 0 || ts > b.last {
		b.last = ts
	}
	b.count++
	t.count++
	return nil
}

// Close finalizes the storage file and writes metadata.yaml.
func (b *Bag) Close() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true

	md := b.metadata()
	bs, err := md.Marshal()
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := b.st.finalize(bs); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	p := filepath.Join(b.uri, MetadataFile)
	klog.V(2).Infof("writing %s", p)
	if err := os.WriteFile(p, bs, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Abort releases the storage file without finalizing it. The bag is left
// incomplete and has no metadata.yaml.
func (b *Bag) Abort() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	return b.st.abort()
}

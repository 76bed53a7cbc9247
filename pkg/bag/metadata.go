package bag

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the bag information file in every bag directory.
const MetadataFile = "metadata.yaml"

const metadataVersion = 5

// Metadata mirrors rosbag2_bagfile_information.
type Metadata struct {
	Info BagInfo `yaml:"rosbag2_bagfile_information"`
}

// BagInfo is the rosbag2_bagfile_information block.
type BagInfo struct {
	Version           int                     `yaml:"version"`
	StorageIdentifier string                  `yaml:"storage_identifier"`
	Duration          Duration                `yaml:"duration"`
	StartingTime      StartingTime            `yaml:"starting_time"`
	MessageCount      uint64                  `yaml:"message_count"`
	Topics            []TopicWithMessageCount `yaml:"topics_with_message_count"`
	CompressionFormat string                  `yaml:"compression_format"`
	CompressionMode   string                  `yaml:"compression_mode"`
	RelativeFilePaths []string                `yaml:"relative_file_paths"`
	Files             []FileInfo              `yaml:"files"`
}

// Duration is the span between the first and last message.
type Duration struct {
	Nanoseconds int64 `yaml:"nanoseconds"`
}

// StartingTime is the log time of the first message.
type StartingTime struct {
	NanosecondsSinceEpoch int64 `yaml:"nanoseconds_since_epoch"`
}

// TopicMetadata describes one topic.
type TopicMetadata struct {
	Name                string `yaml:"name"`
	Type                string `yaml:"type"`
	SerializationFormat string `yaml:"serialization_format"`
	OfferedQoSProfiles  string `yaml:"offered_qos_profiles"`
}

// TopicWithMessageCount pairs a topic with its message count.
type TopicWithMessageCount struct {
	TopicMetadata TopicMetadata `yaml:"topic_metadata"`
	MessageCount  uint64        `yaml:"message_count"`
}

// FileInfo describes one storage file of the bag.
type FileInfo struct {
	Path         string       `yaml:"path"`
	StartingTime StartingTime `yaml:"starting_time"`
	Duration     Duration     `yaml:"duration"`
	MessageCount uint64       `yaml:"message_count"`
}

// Marshal renders the metadata as YAML.
func (m *Metadata) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// ReadMetadata loads metadata.yaml from a bag directory.
func ReadMetadata(uri string) (*Metadata, error) {
	bs, err := os.ReadFile(filepath.Join(uri, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	m := &Metadata{}
	if err := yaml.Unmarshal(bs, m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return m, nil
}

func (b *Bag) metadata() *Metadata {
	var start, dur int64
	if b.count > 0 {
		start = b.first
		dur = b.last - b.first
	}

	topics := []TopicWithMessageCount{}
	for _, t := range b.order {
		topics = append(topics, TopicWithMessageCount{
			TopicMetadata: TopicMetadata{
				Name:                t.topic.Name,
				Type:                t.topic.Type,
				SerializationFormat: t.topic.SerializationFormat,
				OfferedQoSProfiles:  t.topic.OfferedQoSProfiles,
			},
			MessageCount: t.count,
		})
	}

	return &Metadata{Info: BagInfo{
		Version:           metadataVersion,
		StorageIdentifier: string(b.format),
		Duration:          Duration{Nanoseconds: dur},
		StartingTime:      StartingTime{NanosecondsSinceEpoch: start},
		MessageCount:      b.count,
		Topics:            topics,
		RelativeFilePaths: []string{b.file},
		Files: []FileInfo{{
			Path:         b.file,
			StartingTime: StartingTime{NanosecondsSinceEpoch: start},
			Duration:     Duration{Nanoseconds: dur},
			MessageCount: b.count,
		}},
	}}
}

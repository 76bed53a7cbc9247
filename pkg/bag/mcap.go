package bag

import (
	"fmt"
	"os"

	"github.com/foxglove/mcap/go/mcap"
	"k8s.io/klog/v2"
)

const (
	mcapProfile    = "ros2"
	mcapLibrary    = "img2bag"
	mcapChunkSize  = 768 * 1024
	schemaEncoding = "ros2msg"
	metadataRecord = "rosbag2"
	metadataKey    = "serialized_metadata"
	qosMetadataKey = "offered_qos_profiles"
)

type mcapStorage struct {
	f *os.File
	w *mcap.Writer

	schemas  map[string]uint16
	channels map[int]uint16
	seq      map[uint16]uint32
}

func newMCAPStorage(path string) (*mcapStorage, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	w, err := mcap.NewWriter(f, &mcap.WriterOptions{
		IncludeCRC:  true,
		Chunked:     true,
		ChunkSize:   mcapChunkSize,
		Compression: mcap.CompressionZSTD,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("writer: %w", err)
	}

	if err := w.WriteHeader(&mcap.Header{Profile: mcapProfile, Library: mcapLibrary}); err != nil {
		f.Close()
		return nil, fmt.Errorf("header: %w", err)
	}

	return &mcapStorage{
		f:        f,
		w:        w,
		schemas:  map[string]uint16{},
		channels: map[int]uint16{},
		seq:      map[uint16]uint32{},
	}, nil
}

func (s *mcapStorage) createTopic(id int, t Topic) error {
	sid, ok := s.schemas[t.Type]
	if !ok {
		// schema ID 0 is reserved for schemaless channels
		sid = uint16(len(s.schemas) + 1)
		err := s.w.WriteSchema(&mcap.Schema{
			ID:       sid,
			Name:     t.Type,
			Encoding: schemaEncoding,
			Data:     []byte(t.Definition),
		})
		if err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		s.schemas[t.Type] = sid
	}

	cid := uint16(id)
	err := s.w.WriteChannel(&mcap.Channel{
		ID:              cid,
		SchemaID:        sid,
		Topic:           t.Name,
		MessageEncoding: t.SerializationFormat,
		Metadata:        map[string]string{qosMetadataKey: t.OfferedQoSProfiles},
	})
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	s.channels[id] = cid
	return nil
}

func (s *mcapStorage) write(id int, data []byte, ts int64) error {
	cid, ok := s.channels[id]
	if !ok {
		return ErrUnknownTopic
	}

	err := s.w.WriteMessage(&mcap.Message{
		ChannelID:   cid,
		Sequence:    s.seq[cid],
		LogTime:     uint64(ts),
		PublishTime: uint64(ts),
		Data:        data,
	})
	if err != nil {
		return err
	}
	s.seq[cid]++
	return nil
}

func (s *mcapStorage) finalize(md []byte) error {
	err := s.w.WriteMetadata(&mcap.Metadata{
		Name:     metadataRecord,
		Metadata: map[string]string{metadataKey: string(md)},
	})
	if err != nil {
		s.f.Close()
		return fmt.Errorf("metadata: %w", err)
	}

	if err := s.w.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	klog.V(2).Infof("finalized %s", s.f.Name())
	return s.f.Close()
}

func (s *mcapStorage) abort() error {
	return s.f.Close()
}

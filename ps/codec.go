package ps

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
)

// Codec turns snapshots into bytes and back.
type Codec interface {
	Name() string
	Marshal(snapshot Snapshot) ([]byte, error)
	Unmarshal(data []byte) (Snapshot, error)
}

type JSONCodec struct{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(snapshot Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot as json: %w", err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode json snapshot: %w", err)
	}
	return snapshot, nil
}

type BSONCodec struct{}

func (BSONCodec) Name() string {
	return "bson"
}

func (BSONCodec) Marshal(snapshot Snapshot) ([]byte, error) {
	data, err := bson.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot as bson: %w", err)
	}
	return data, nil
}

func (BSONCodec) Unmarshal(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := bson.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode bson snapshot: %w", err)
	}
	return snapshot, nil
}

// CodecFor picks the codec for a file name or URL by its extension.
func CodecFor(location string) Codec {
	if i := strings.IndexAny(location, "?#"); i >= 0 && strings.Contains(location, "://") {
		location = location[:i]
	}
	if strings.EqualFold(path.Ext(location), ".bson") {
		return BSONCodec{}
	}
	return JSONCodec{}
}

package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"kbrag/internal/adapter/memstore"
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")
	keyBuild      = []byte("build")
	keyCount      = []byte("count")
)

// vectorSource is implemented by indexes that can hand back their vectors in
// position order.
type vectorSource interface {
	Vectors() [][]float32
}

// BoltIndexBackend persists a flat index to a bbolt file. Vectors are keyed by
// their big-endian position so a cursor walks them in order.
type BoltIndexBackend struct{}

func NewBoltIndexBackend() *BoltIndexBackend {
	return &BoltIndexBackend{}
}

func (b *BoltIndexBackend) Name() string {
	return "bolt"
}

func (b *BoltIndexBackend) NewIndex(dimension int) (port.VectorIndex, error) {
	return memstore.NewFlatIndex(dimension)
}

func (b *BoltIndexBackend) Save(index port.VectorIndex, path string, info domain.BuildInfo) error {
	src, ok := index.(vectorSource)
	if !ok {
		return fmt.Errorf("bolt backend cannot save %T", index)
	}
	vectors := src.Vectors()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index file: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}
	defer db.Close()

	info.SchemaVersion = CurrentSchemaVersion
	info.Dimension = index.Dimension()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		vb, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketVectors, err)
		}

		if err := writeSchemaStamp(meta, schemaStamp{Version: info.SchemaVersion, ConfigHash: info.ConfigHash}); err != nil {
			return err
		}

		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		if err := meta.Put(keyBuild, data); err != nil {
			return err
		}
		if err := meta.Put(keyCount, positionKey(len(vectors))); err != nil {
			return err
		}

		for i, v := range vectors {
			if err := vb.Put(positionKey(i), encodeVector(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltIndexBackend) Load(path string) (port.VectorIndex, domain.BuildInfo, error) {
	var info domain.BuildInfo

	if _, err := os.Stat(path); err != nil {
		return nil, info, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, info, domain.Corrupt(err, "cannot open index file %s", path)
	}
	defer db.Close()

	var vectors [][]float32
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		vb := tx.Bucket(bucketVectors)
		if meta == nil || vb == nil {
			return domain.Corrupt(nil, "missing buckets")
		}

		schema, err := readSchemaStamp(meta)
		if err != nil {
			return domain.Corrupt(err, "unreadable schema version")
		}
		if schema.Version != CurrentSchemaVersion {
			return domain.Corrupt(nil, "unsupported schema version %d (expected %d)", schema.Version, CurrentSchemaVersion)
		}

		data := meta.Get(keyBuild)
		if data == nil {
			return domain.Corrupt(nil, "missing build info")
		}
		if err := json.Unmarshal(data, &info); err != nil {
			return domain.Corrupt(err, "unreadable build info")
		}

		countKey := meta.Get(keyCount)
		if len(countKey) != 8 {
			return domain.Corrupt(nil, "missing vector count")
		}
		count := int(binary.BigEndian.Uint64(countKey))

		vectors = make([][]float32, 0, count)
		c := vb.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(k) != 8 || int(binary.BigEndian.Uint64(k)) != len(vectors) {
				return domain.Corrupt(nil, "vector positions are not contiguous at %d", len(vectors))
			}
			vec, err := decodeVector(v, info.Dimension)
			if err != nil {
				return domain.Corrupt(err, "bad vector at position %d", len(vectors))
			}
			vectors = append(vectors, vec)
		}

		if len(vectors) != count {
			return domain.Corrupt(nil, "expected %d vectors, found %d", count, len(vectors))
		}
		return nil
	})
	if err != nil {
		var corrupt *domain.IndexCorruptionError
		if errors.As(err, &corrupt) {
			return nil, info, err
		}
		return nil, info, domain.Corrupt(err, "cannot read index file %s", path)
	}

	index, err := memstore.NewFlatIndex(info.Dimension)
	if err != nil {
		return nil, info, domain.Corrupt(err, "bad dimension")
	}
	if err := index.Add(vectors); err != nil {
		return nil, info, domain.Corrupt(err, "cannot rebuild index")
	}

	return index, info, nil
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte, dimension int) ([]float32, error) {
	if len(data) != 4*dimension {
		return nil, fmt.Errorf("expected %d bytes, got %d", 4*dimension, len(data))
	}
	v := make([]float32, dimension)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}

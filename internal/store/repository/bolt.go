package repository

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// BoltRepo stores records in a bbolt file, one bucket per database, with
// msgpack-encoded values keyed by document id.
type BoltRepo struct {
	bdb *bbolt.DB
}

func NewBoltRepo(bdb *bbolt.DB) *BoltRepo {
	return &BoltRepo{bdb: bdb}
}

func (b *BoltRepo) Get(ctx context.Context, db, id string) (*Record, error) {
	var rec *Record
	err := b.bdb.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = loadRecord(tx.Bucket([]byte(db)), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (b *BoltRepo) Put(ctx context.Context, rec *Record, prevRev string) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", rec.DB, rec.ID, err)
	}
	return b.bdb.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(rec.DB))
		if err != nil {
			return err
		}
		cur, err := loadRecord(bkt, rec.ID)
		if err != nil {
			return err
		}
		if err := CheckRev(cur, prevRev); err != nil {
			return err
		}
		return bkt.Put([]byte(rec.ID), data)
	})
}

func loadRecord(bkt *bbolt.Bucket, id string) (*Record, error) {
	if bkt == nil {
		return nil, nil
	}
	raw := bkt.Get([]byte(id))
	if raw == nil {
		return nil, nil
	}
	var rec Record
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &rec, nil
}

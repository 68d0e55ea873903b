package database

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// OpenBolt opens (creating if needed) the bbolt file at path. A second
// process holding the file makes this fail after one second instead of
// blocking forever.
func OpenBolt(path string) (*bbolt.DB, error) {
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt open %s: %w", path, err)
	}
	return bdb, nil
}

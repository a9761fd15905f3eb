package pebble

import "github.com/polycash/blockvm/pkg/db"

var (
	ErrClosed          = db.ErrClosed
	ErrNotFound        = db.ErrNotFound
	ErrBatchDone       = db.ErrBatchDone
	ErrIteratorInvalid = db.ErrIteratorInvalid
)

const (
	ErrInIteratorCreation = "kv-store: create pebble iterator: %w"
	ErrIteratorValue      = "kv-store: read pebble iterator value: %w"
)

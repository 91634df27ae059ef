package port

import "context"

// CartStorage is the device-local persistence of the whole cart snapshot.
// Only the session manager talks to it.
type CartStorage interface {
	// ReadCart returns the serialized snapshot; ok is false when none was ever written or it was deleted.
	ReadCart(ctx context.Context) (snapshot []byte, ok bool, err error)
	WriteCart(ctx context.Context, snapshot []byte) error
	DeleteCart(ctx context.Context) error
}

// KeyValueStore is a small-blob store scoped to one device.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

package database

// DataAccessor defines the common interface by which data gets
// accessed in a generic database.
type DataAccessor interface {
	// Put sets the value for the given key. It overwrites
	// any previous value for that key.
	Put(key []byte, value []byte) error

	// Get gets the value for the given key. It returns
	// ErrNotFound if the given key does not exist.
	Get(key []byte) ([]byte, error)

	// Has returns true if the database does contains the
	// given key.
	Has(key []byte) (bool, error)

	// Delete deletes the value for the given key. Will not
	// return an error if the key doesn't exist.
	Delete(key []byte) error
}

// Batch accumulates writes that are applied atomically
// once Write is called.
type Batch interface {
	Put(key []byte, value []byte)
	Delete(key []byte)

	// Len returns the number of writes accumulated so far.
	Len() int

	// Write atomically applies all accumulated writes.
	Write() error
}

// Database defines the interface of a database that can
// read and write data, and apply atomic batches.
type Database interface {
	DataAccessor

	// NewBatch creates an empty batch bound to this database.
	NewBatch() Batch

	// Close closes the database.
	Close() error
}

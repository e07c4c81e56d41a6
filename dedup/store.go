package dedup

// A Store tracks the identity keys observed during a run. Membership
// only ever grows; a run never removes keys.
type Store interface {
	// TestAndRecord reports whether key is being observed for the
	// first time, recording it as seen. Implementations must make the
	// test-and-insert atomic so that concurrent callers cannot both
	// observe "first".
	TestAndRecord(key Key) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

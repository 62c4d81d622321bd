package storage

// Value is implemented by every type that's stored through this package. The
// version is the etcd key version and is set on read.
type Value interface {
	Version() int64
	SetVersion(version int64)
}

// StoredValue is embedded in stored types to implement Value. The version is
// not serialized.
type StoredValue struct {
	version int64
}

func (v *StoredValue) Version() int64 {
	return v.version
}

func (v *StoredValue) SetVersion(version int64) {
	v.version = version
}

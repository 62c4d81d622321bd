package migrate

import "errors"

// ErrVersionRegression indicates that the settings on disk were written by a
// newer release than this one.
var ErrVersionRegression = errors.New("settings version is newer than this converter supports")

// ErrInvalidStepOrder indicates that the registered steps are not keyed by
// unique, positive and increasing versions.
var ErrInvalidStepOrder = errors.New("invalid step order")

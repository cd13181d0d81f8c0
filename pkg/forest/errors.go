// Copyright 2025 Certen Protocol

package forest

import "errors"

// ErrNonCanonicalForest is returned by New when the given trees' heights
// are not strictly decreasing.
var ErrNonCanonicalForest = errors.New("forest: tree heights must be strictly decreasing")

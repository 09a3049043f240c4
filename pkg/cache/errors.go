package cache

import (
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

func unknownBackend(name string) error {
	return fmt.Errorf("%w %q (must be one of: %s, %s, %s)", ErrUnknownBackend, name, BackendNone, BackendFile, BackendRedis)
}

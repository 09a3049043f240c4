package cache

import "context"

// Options selects and configures a backend for [Open].
type Options struct {
	Backend  string // "none", "file" or "redis"; empty means "none"
	Dir      string // FileCache directory
	RedisURL string // redis://[:password@]host:port/db
}

// Open constructs the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, unknownBackend(opts.Backend)
	}
}

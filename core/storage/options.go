// Package storage provides durable key/value implementations of core.Storage.
package storage

import "time"

// DefaultNamespace partitions keys when no profile is configured.
const DefaultNamespace = "default"

// Option configures a storage implementation
type Option func(*options)

type options struct {
	namespace string
	timeout   time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		namespace: DefaultNamespace,
		timeout:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithNamespace keeps keys of one client profile apart from others sharing
// the same backend.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithTimeout bounds each call to a networked backend (Postgres, Redis).
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

package marker

import "log/slog"

// Option configures a marker at creation.
type Option func(*Marker)

// WithPolicy sets the policy of both ends.
func WithPolicy(p EndPolicy) Option {
	return func(m *Marker) {
		m.StartPolicy = p
		m.EndPolicy = p
	}
}

// WithStartPolicy sets the policy of the start end.
func WithStartPolicy(p EndPolicy) Option {
	return func(m *Marker) {
		m.StartPolicy = p
	}
}

// WithEndPolicy sets the policy of the end end.
func WithEndPolicy(p EndPolicy) Option {
	return func(m *Marker) {
		m.EndPolicy = p
	}
}

// WithInvalidate sets the invalidation strategy.
func WithInvalidate(s InvalidationStrategy) Option {
	return func(m *Marker) {
		m.Invalidate = s
	}
}

// WithReversed places the head at the start of the range.
func WithReversed() Option {
	return func(m *Marker) {
		m.Reversed = true
	}
}

// WithProperties attaches arbitrary caller data to the marker.
func WithProperties(props map[string]any) Option {
	return func(m *Marker) {
		m.Properties = props
	}
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) IndexOption {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

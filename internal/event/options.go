package event

// Priority determines execution order. Lower values run first.
type Priority int

const (
	// PriorityIndex is reserved for the marker index, which must rewrite
	// anchors before anything else observes a change.
	PriorityIndex Priority = -100

	// PriorityDisplay is used by the display translator.
	PriorityDisplay Priority = -50

	// PriorityDerived is used by caches derived from the display
	// (decoration index, height cache bookkeeping).
	PriorityDerived Priority = -25

	// PriorityNormal is the default for external observers.
	PriorityNormal Priority = 0
)

// Option configures a subscription.
type Option func(*subscribeConfig)

type subscribeConfig struct {
	priority Priority
	once     bool
}

// WithPriority sets the subscription priority.
func WithPriority(p Priority) Option {
	return func(c *subscribeConfig) {
		c.priority = p
	}
}

// WithOnce disposes the subscription after its first delivery.
func WithOnce() Option {
	return func(c *subscribeConfig) {
		c.once = true
	}
}

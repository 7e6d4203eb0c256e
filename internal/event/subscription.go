package event

// Subscription is a handle returned by Emitter.Subscribe.
type Subscription struct {
	dispose  func()
	disposed bool
}

// Dispose removes the subscription. It is safe to call more than once.
func (s *Subscription) Dispose() {
	if s == nil || s.disposed {
		return
	}
	s.disposed = true
	if s.dispose != nil {
		s.dispose()
	}
}

// Disposed reports whether Dispose has been called.
func (s *Subscription) Disposed() bool {
	return s == nil || s.disposed
}

// Disposables collects subscriptions so they can be released together.
type Disposables struct {
	subs []*Subscription
}

// Add records subscriptions for later disposal.
func (d *Disposables) Add(subs ...*Subscription) {
	d.subs = append(d.subs, subs...)
}

// Dispose releases every recorded subscription.
func (d *Disposables) Dispose() {
	for _, s := range d.subs {
		s.Dispose()
	}
	d.subs = nil
}

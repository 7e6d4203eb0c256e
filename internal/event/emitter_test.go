package event

import (
	"reflect"
	"testing"
)

func TestEmitterPriorityOrder(t *testing.T) {
	var e Emitter[int]
	var got []string

	e.Subscribe(func(int) { got = append(got, "normal-1") })
	e.Subscribe(func(int) { got = append(got, "display") }, WithPriority(PriorityDisplay))
	e.Subscribe(func(int) { got = append(got, "index") }, WithPriority(PriorityIndex))
	e.Subscribe(func(int) { got = append(got, "normal-2") })
	e.Subscribe(func(int) { got = append(got, "derived") }, WithPriority(PriorityDerived))

	e.Emit(1)

	want := []string{"index", "display", "derived", "normal-1", "normal-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dispatch order = %v, want %v", got, want)
	}
}

func TestEmitterDispose(t *testing.T) {
	var e Emitter[string]
	calls := 0
	sub := e.Subscribe(func(string) { calls++ })

	e.Emit("a")
	sub.Dispose()
	sub.Dispose()
	e.Emit("b")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if e.Len() != 0 {
		t.Errorf("expected no live subscriptions, got %d", e.Len())
	}
	if !sub.Disposed() {
		t.Error("subscription should report disposed")
	}
}

func TestEmitterDisposeDuringDispatch(t *testing.T) {
	var e Emitter[int]
	var second *Subscription
	secondCalls := 0

	e.Subscribe(func(int) { second.Dispose() })
	second = e.Subscribe(func(int) { secondCalls++ })

	e.Emit(0)
	e.Emit(0)

	if secondCalls != 0 {
		t.Errorf("disposed handler ran %d times", secondCalls)
	}
	if e.Len() != 1 {
		t.Errorf("expected 1 live subscription, got %d", e.Len())
	}
}

func TestEmitterSubscribeDuringDispatch(t *testing.T) {
	var e Emitter[int]
	late := 0

	e.Subscribe(func(int) {
		e.Subscribe(func(int) { late++ })
	}, WithOnce())

	e.Emit(0)
	if late != 0 {
		t.Errorf("handler added during dispatch should not run for that event")
	}
	e.Emit(0)
	if late != 1 {
		t.Errorf("expected late handler to run once, got %d", late)
	}
}

func TestEmitterOnce(t *testing.T) {
	var e Emitter[int]
	calls := 0
	e.Subscribe(func(int) { calls++ }, WithOnce())

	e.Emit(1)
	e.Emit(2)

	if calls != 1 {
		t.Errorf("expected once handler to run once, got %d", calls)
	}
}

func TestDisposables(t *testing.T) {
	var e Emitter[int]
	var d Disposables
	calls := 0
	d.Add(e.Subscribe(func(int) { calls++ }), e.Subscribe(func(int) { calls++ }))

	d.Dispose()
	e.Emit(0)

	if calls != 0 {
		t.Errorf("expected no calls after Dispose, got %d", calls)
	}
}

func TestEmitterClear(t *testing.T) {
	var e Emitter[int]
	calls := 0
	e.Subscribe(func(int) {
		calls++
		e.Clear()
	})
	e.Subscribe(func(int) { calls++ })

	e.Emit(0)
	e.Emit(0)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if e.Len() != 0 {
		t.Errorf("expected empty emitter, got %d", e.Len())
	}
}

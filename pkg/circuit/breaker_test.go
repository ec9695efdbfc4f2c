package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(config Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker("geocoder", config, zap.NewNop())
	b.now = clock.now
	return b, clock
}

func TestNewBreaker(t *testing.T) {
	breaker := NewBreaker("test", DefaultConfig(), nil)

	if breaker.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %s", breaker.State())
	}
	if breaker.Name() != "test" {
		t.Errorf("Expected name test, got %s", breaker.Name())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 3, Timeout: time.Second})

	for i := 0; i < 2; i++ {
		breaker.Record(errors.New("timeout"))
	}
	if breaker.State() != StateClosed {
		t.Fatalf("Expected CLOSED below threshold, got %s", breaker.State())
	}

	breaker.Record(errors.New("timeout"))
	if breaker.State() != StateOpen {
		t.Fatalf("Expected OPEN after threshold, got %s", breaker.State())
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 2, Timeout: time.Second})

	breaker.Record(errors.New("timeout"))
	breaker.Record(nil)
	breaker.Record(errors.New("timeout"))

	if breaker.State() != StateClosed {
		t.Errorf("Expected CLOSED, failures are not consecutive; got %s", breaker.State())
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	breaker, clock := newTestBreaker(Config{
		Threshold:        1,
		Timeout:          time.Minute,
		SuccessThreshold: 2,
		MaxHalfOpen:      2,
	})

	breaker.Record(errors.New("quota exceeded"))
	clock.advance(30 * time.Second)
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen before timeout, got %v", err)
	}

	clock.advance(31 * time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("Expected probe to be allowed, got %v", err)
	}
	if breaker.State() != StateHalfOpen {
		t.Fatalf("Expected HALF_OPEN, got %s", breaker.State())
	}
	if err := breaker.Allow(); err != nil {
		t.Fatalf("Expected second probe to be allowed, got %v", err)
	}
	if err := breaker.Allow(); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("Expected ErrTooManyRequests, got %v", err)
	}

	breaker.Record(nil)
	breaker.Record(nil)
	if breaker.State() != StateClosed {
		t.Errorf("Expected CLOSED after probe successes, got %s", breaker.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker, clock := newTestBreaker(Config{Threshold: 1, Timeout: time.Second})

	breaker.Record(errors.New("boom"))
	clock.advance(2 * time.Second)
	_ = breaker.Allow()
	breaker.Record(errors.New("boom"))

	if breaker.State() != StateOpen {
		t.Errorf("Expected OPEN, got %s", breaker.State())
	}
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected fresh open period, got %v", err)
	}
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 1, Timeout: time.Second})

	err := breaker.Execute(func() error { return context.Canceled })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if breaker.State() != StateClosed {
		t.Errorf("Expected CLOSED, got %s", breaker.State())
	}
}

func TestBreaker_CustomIsFailure(t *testing.T) {
	ignored := errors.New("bad request")
	breaker, _ := newTestBreaker(Config{
		Threshold: 1,
		Timeout:   time.Second,
		IsFailure: func(err error) bool { return !errors.Is(err, ignored) },
	})

	breaker.Record(ignored)
	if breaker.State() != StateClosed {
		t.Errorf("Expected CLOSED, got %s", breaker.State())
	}
}

func TestBreaker_Execute(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 1, Timeout: time.Hour})

	if err := breaker.Execute(func() error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	testErr := errors.New("test failure")
	if err := breaker.Execute(func() error { return testErr }); err != testErr {
		t.Errorf("Expected test error, got %v", err)
	}

	called := false
	err := breaker.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("Expected fast failure without calling fn, got err=%v called=%v", err, called)
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	breaker, _ := newTestBreaker(Config{
		Threshold: 1,
		Timeout:   time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	breaker.Record(errors.New("boom"))
	breaker.Reset()

	want := []string{"geocoder:CLOSED->OPEN", "geocoder:OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("Expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], transitions[i])
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateClosed, "CLOSED"},
		{StateOpen, "OPEN"},
		{StateHalfOpen, "HALF_OPEN"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.expected)
		}
	}
}

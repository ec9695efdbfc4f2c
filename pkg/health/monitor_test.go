package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPingChecker(t *testing.T) {
	down := errors.New("connection refused")
	tests := []struct {
		name     string
		critical bool
		err      error
		want     Status
	}{
		{"healthy", true, nil, StatusHealthy},
		{"critical down", true, down, StatusUnhealthy},
		{"optional down", false, down, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &PingChecker{Name: "db", Critical: tt.critical, Ping: func(context.Context) error { return tt.err }}
			got := c.Check(context.Background())
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
			if tt.err != nil && got.LastError != tt.err.Error() {
				t.Errorf("LastError = %q", got.LastError)
			}
		})
	}
}

func TestMonitor_CheckAll(t *testing.T) {
	m := NewMonitor(time.Hour, nil)
	redisUp := true
	m.RegisterPing("mongo", true, func(context.Context) error { return nil })
	m.RegisterPing("redis", false, func(context.Context) error {
		if redisUp {
			return nil
		}
		return errors.New("timeout")
	})

	if m.Overall() != StatusUnknown {
		t.Errorf("Overall before checks = %s", m.Overall())
	}

	m.CheckAll(context.Background())
	if m.Overall() != StatusHealthy {
		t.Errorf("Overall = %s, want HEALTHY", m.Overall())
	}

	redisUp = false
	m.CheckAll(context.Background())
	if m.Overall() != StatusDegraded {
		t.Errorf("Overall = %s, want DEGRADED", m.Overall())
	}
	if m.IsHealthy("redis") {
		t.Error("redis reported healthy")
	}

	result, ok := m.GetResult("redis")
	if !ok || result.CheckCount != 2 || result.FailureCount != 1 {
		t.Errorf("redis result = %+v", result)
	}
	if len(m.GetAllResults()) != 2 {
		t.Errorf("results = %v", m.GetAllResults())
	}
}

func TestMonitor_CriticalFailure(t *testing.T) {
	m := NewMonitor(time.Hour, nil)
	m.RegisterPing("postgres", true, func(context.Context) error { return errors.New("down") })
	m.RegisterPing("redis", false, func(context.Context) error { return errors.New("down") })

	m.CheckAll(context.Background())
	if m.Overall() != StatusUnhealthy {
		t.Errorf("Overall = %s, want UNHEALTHY", m.Overall())
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "HEALTHY"},
		{StatusUnhealthy, "UNHEALTHY"},
		{StatusDegraded, "DEGRADED"},
		{Status(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

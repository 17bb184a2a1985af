package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("下游不可用")

// TestBreaker_TripsAfterConsecutiveFailures 连续失败达到阈值后熔断
func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("第%d次请求应返回业务错误, got %v", i+1, err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("3次连续失败后应为OPEN, got %s", b.State())
	}

	// 打开后快速失败，fn不被调用
	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("熔断打开时应返回ErrOpen, got %v", err)
	}
	if called {
		t.Error("熔断打开时不应调用下游")
	}
}

// TestBreaker_SuccessResetsFailures 成功会重置连续失败计数
func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := New("test", 3, time.Minute)

	b.Do(func() error { return errBoom })
	b.Do(func() error { return errBoom })
	b.Do(func() error { return nil }) // 重置
	b.Do(func() error { return errBoom })
	b.Do(func() error { return errBoom })

	if b.State() != StateClosed {
		t.Fatalf("失败未连续达到阈值,应保持CLOSED, got %s", b.State())
	}
}

// TestBreaker_HalfOpenRecovery 冷却期后探测成功则恢复
func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := New("test", 1, 10*time.Millisecond)

	b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("应为OPEN, got %s", b.State())
	}

	// 等待冷却期结束
	time.Sleep(20 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("冷却期后应为HALF_OPEN, got %s", b.State())
	}

	// 探测成功 → CLOSED
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("探测请求应被放行: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("探测成功后应为CLOSED, got %s", b.State())
	}
}

// TestBreaker_HalfOpenProbeFailureReopens 探测失败重新熔断
func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b := New("test", 1, 10*time.Millisecond)

	b.Do(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	b.Do(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("探测失败后应重新OPEN, got %s", b.State())
	}
}

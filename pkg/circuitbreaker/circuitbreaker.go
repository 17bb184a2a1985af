// Package circuitbreaker 实现熔断器模式
//
// 用途：保护订单主流程不被故障的外设(RabbitMQ)拖慢——
// 事件发布连续失败后快速失败，给Broker恢复时间后自动探测。
//
// 三种状态：
// 1. CLOSED(正常)：请求正常通过，统计连续失败次数
// 2. OPEN(熔断)：请求快速失败，不调用下游
// 3. HALF_OPEN(探测)：冷却期过后放行一个探测请求，
//    成功则回到CLOSED，失败则重新OPEN
package circuitbreaker

import (
	"errors"
	"log"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String 状态转字符串(便于日志)
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpen 熔断器打开，请求被快速拒绝
var ErrOpen = errors.New("熔断器已打开")

// Breaker 熔断器
// 触发策略：连续失败次数达到阈值时熔断
type Breaker struct {
	name        string
	maxFailures int           // 连续失败阈值
	cooldown    time.Duration // OPEN状态持续时间

	mu       sync.Mutex
	state    State
	failures int       // 当前连续失败次数
	openedAt time.Time // 进入OPEN的时间
	probing  bool      // HALF_OPEN下是否已有探测请求在途
}

// New 创建熔断器
// maxFailures <= 0时取默认值5，cooldown <= 0时取默认值30秒
func New(name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		state:       StateClosed,
	}
}

// Do 执行请求
// 熔断器打开时直接返回ErrOpen，不调用fn
func (b *Breaker) Do(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn()
	b.after(err == nil)
	return err
}

// State 返回当前状态(日志和测试用)
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// before 请求前检查
func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState(time.Now()) {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		// 半开状态只放行一个探测请求
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

// after 请求后记录结果并推进状态机
func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.currentState(time.Now())
	b.probing = false

	if success {
		b.failures = 0
		if state == StateHalfOpen {
			b.setState(StateClosed)
		}
		return
	}

	switch state {
	case StateClosed:
		b.failures++
		if b.failures >= b.maxFailures {
			b.trip()
		}
	case StateHalfOpen:
		// 探测失败，重新进入冷却期
		b.trip()
	}
}

// currentState 计算当前状态(冷却期结束时OPEN→HALF_OPEN)
// 调用方必须持有锁
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.cooldown {
		b.setState(StateHalfOpen)
	}
	return b.state
}

// trip 打开熔断器并记录时间
// 调用方必须持有锁
func (b *Breaker) trip() {
	b.openedAt = time.Now()
	b.setState(StateOpen)
}

// setState 切换状态并记日志
// 调用方必须持有锁
func (b *Breaker) setState(next State) {
	if b.state == next {
		return
	}
	log.Printf("熔断器%s状态切换: %s → %s", b.name, b.state, next)
	b.state = next
}

package service

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Chaos — политика внедрения сбоев и задержек.
type Chaos interface {
	// ShouldFail возвращает true с вероятностью p.
	ShouldFail(p float64) bool

	// Delay возвращает длительность в [lo, hi) с шагом в миллисекунду.
	Delay(lo, hi time.Duration) time.Duration

	// Value возвращает значение в [0, 100).
	Value() float64
}

// RandomChaos — Chaos на псевдослучайном генераторе с явным seed.
type RandomChaos struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomChaos создаёт RandomChaos. seed == 0 — seed от текущего времени.
func NewRandomChaos(seed uint64) *RandomChaos {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomChaos{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *RandomChaos) ShouldFail(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Float64() < p
}

func (c *RandomChaos) Delay(lo, hi time.Duration) time.Duration {
	steps := int64((hi - lo) / time.Millisecond)
	if steps <= 0 {
		return lo
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo + time.Duration(c.rnd.Int64N(steps))*time.Millisecond
}

func (c *RandomChaos) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Float64() * 100
}

// FixedChaos — детерминированный Chaos для тестов.
//
// Fail — исход любого ShouldFail с p > 0. DelayAt — доля диапазона
// задержки (0 — lo, 1 — последний миллисекундный шаг перед hi).
type FixedChaos struct {
	Fail    bool
	DelayAt float64
	Val     float64
}

func (c FixedChaos) ShouldFail(p float64) bool {
	return c.Fail && p > 0
}

func (c FixedChaos) Delay(lo, hi time.Duration) time.Duration {
	steps := int64((hi - lo) / time.Millisecond)
	if steps <= 0 {
		return lo
	}
	at := c.DelayAt
	if at < 0 {
		at = 0
	}
	if at > 1 {
		at = 1
	}
	return lo + time.Duration(int64(at*float64(steps-1)))*time.Millisecond
}

func (c FixedChaos) Value() float64 {
	return c.Val
}

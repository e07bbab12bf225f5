// Package session 管理一次背景移除会话的状态：
// Idle → Processing → Succeeded | Failed，新输入或显式重置回到 Idle。
// 每次改模式或容差都从原始输入重算，绝不在上一次结果上叠加。
package session

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/chaos-io/swissknife/rembg"
)

// ErrNoInput 还没有载入任何输入图像
var ErrNoInput = errors.New("no input available")

type State int

const (
	StateIdle State = iota
	StateProcessing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot 某一时刻的会话状态，值拷贝，读取后不会再变
type Snapshot struct {
	State      State
	Mode       rembg.Mode
	Tolerance  float64
	Result     image.Image
	Err        error
	Generation uint64
}

// Session 串行化背景移除请求。计算在 goroutine 上进行；完成时带着发起时的
// 代号回来，代号过期的结果直接丢弃（后发起者胜）。
type Session struct {
	mu sync.Mutex

	newRemover func(rembg.Mode, float64) (rembg.Remover, error)

	original  image.Image
	mode      rembg.Mode
	tolerance float64
	trim      bool

	gen    uint64
	state  State
	result image.Image
	err    error

	// OnUpdate 在每次状态落定（Succeeded/Failed）后被调用，可为 nil
	OnUpdate func(Snapshot)
}

func New() *Session {
	return &Session{
		newRemover: rembg.ForMode,
		mode:       rembg.ModeColorKey,
		tolerance:  10,
	}
}

// SetInput 载入新的原始图像并回到 Idle，旧结果作废
func (s *Session) SetInput(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = img
	s.gen++
	s.state = StateIdle
	s.result = nil
	s.err = nil
}

// Reset 清空输入与结果
func (s *Session) Reset() {
	s.SetInput(nil)
}

// SetMode 切换移除策略并从原始输入重算
func (s *Session) SetMode(ctx context.Context, mode rembg.Mode) error {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return s.Rerun(ctx)
}

// SetTolerance 调整色键容差并从原始输入重算
func (s *Session) SetTolerance(ctx context.Context, tolerance float64) error {
	s.mu.Lock()
	s.tolerance = tolerance
	s.mu.Unlock()
	return s.Rerun(ctx)
}

// SetTrim 控制成功后是否裁剪到主体
func (s *Session) SetTrim(trim bool) {
	s.mu.Lock()
	s.trim = trim
	s.mu.Unlock()
}

// Rerun 从原始输入发起一次新的计算。同步返回发起错误；
// 计算结果通过 Snapshot/OnUpdate 观察。
func (s *Session) Rerun(ctx context.Context) error {
	s.mu.Lock()
	if s.original == nil {
		s.mu.Unlock()
		return ErrNoInput
	}

	s.gen++
	gen := s.gen
	s.state = StateProcessing
	input, mode, tolerance, trim := s.original, s.mode, s.tolerance, s.trim
	s.mu.Unlock()

	go s.run(ctx, gen, input, mode, tolerance, trim)
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64, input image.Image, mode rembg.Mode, tolerance float64, trim bool) {
	remover, err := s.newRemover(mode, tolerance)
	if err != nil {
		s.apply(gen, nil, err)
		return
	}

	out, err := remover.Remove(ctx, input)
	if err == nil && trim {
		out, err = trimmed(out)
	}
	s.apply(gen, out, err)
}

func trimmed(img image.Image) (image.Image, error) {
	t, err := rembg.TrimToSubject(img, 0.8)
	if err != nil {
		return nil, err
	}
	rembg.Premultiply(t)
	return t, nil
}

func (s *Session) apply(gen uint64, result image.Image, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("discarding stale result", "generation", gen, "current", s.gen)
		return
	}

	if err != nil {
		s.state = StateFailed
		s.err = err
		s.result = nil
	} else {
		s.state = StateSucceeded
		s.result = result
		s.err = nil
	}
	snap := s.snapshotLocked()
	onUpdate := s.OnUpdate
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
}

// Snapshot 返回当前状态的值拷贝
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:      s.state,
		Mode:       s.mode,
		Tolerance:  s.tolerance,
		Result:     s.result,
		Err:        s.err,
		Generation: s.gen,
	}
}

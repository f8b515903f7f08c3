package csc

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrDriverBusy = errors.New("display driver is busy")

// StatusError is a failure status reported by the adapter. Busy is set by
// the Sink when the status is the transient condition where the driver
// refuses changes, callers usually report that once and retry later.
type StatusError struct {
	Op   string
	Code int32
	Busy bool
}

func (e *StatusError) Error() string {
	ans := fmt.Sprintf("%s failed with error code %d", e.Op, e.Code)
	if e.Busy {
		ans += " (driver busy)"
	}
	return ans
}

func (e *StatusError) Is(target error) bool { return target == ErrDriverBusy && e.Busy }

// Sink is the adapter interface descriptors are submitted to. Calls for a
// single display must be serialized by the caller.
type Sink interface {
	SetColorSpaceConversion(ctx context.Context, displayID uint32, d *Descriptor) error
	// GetColorSpaceConversion reads back the current state. Ramps are never
	// returned.
	GetColorSpaceConversion(ctx context.Context, displayID uint32) (*Descriptor, error)
}

// IsActive reports whether conversion is enabled for the display.
func IsActive(ctx context.Context, s Sink, displayID uint32) (bool, error) {
	d, err := s.GetColorSpaceConversion(ctx, displayID)
	if err != nil {
		return false, err
	}
	return d.IsActive(), nil
}

type SinkCall struct {
	Op         string
	DisplayID  uint32
	Descriptor *Descriptor
	Dither     *DitherControl
}

// MemorySink is a Sink that keeps state in memory and records every call.
// It is safe for concurrent use.
type MemorySink struct {
	mutex sync.Mutex
	state  map[uint32]*Descriptor
	dither map[uint32]DitherControl
	calls  []SinkCall
	// Fail, when set, is consulted before every call and a non-nil result
	// is returned instead of performing the call.
	Fail func(op string, displayID uint32) error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{state: make(map[uint32]*Descriptor), dither: make(map[uint32]DitherControl)}
}

func (s *MemorySink) SetColorSpaceConversion(ctx context.Context, displayID uint32, d *Descriptor) error {
	const op = "SetColorSpaceConversion"
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Fail != nil {
		if err := s.Fail(op, displayID); err != nil {
			return err
		}
	}
	if d == nil {
		return fmt.Errorf("%s: nil descriptor", op)
	}
	// round trip through the serialized form as the adapter would
	data, err := d.MarshalBinary()
	if err != nil {
		return err
	}
	var stored Descriptor
	if err = stored.UnmarshalBinary(data); err != nil {
		return err
	}
	s.calls = append(s.calls, SinkCall{Op: op, DisplayID: displayID, Descriptor: stored.Clone()})
	s.state[displayID] = &stored
	return nil
}

func (s *MemorySink) GetColorSpaceConversion(ctx context.Context, displayID uint32) (*Descriptor, error) {
	const op = "GetColorSpaceConversion"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Fail != nil {
		if err := s.Fail(op, displayID); err != nil {
			return nil, err
		}
	}
	s.calls = append(s.calls, SinkCall{Op: op, DisplayID: displayID})
	d, ok := s.state[displayID]
	if !ok {
		return Disable(), nil
	}
	ans := d.Clone()
	ans.Ramps = nil
	return ans, nil
}

func (s *MemorySink) begin(ctx context.Context, op string, displayID uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Fail != nil {
		return s.Fail(op, displayID)
	}
	return nil
}

func (s *MemorySink) GetDitherControl(ctx context.Context, displayID uint32) (DitherControl, error) {
	const op = "GetDitherControl"
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.begin(ctx, op, displayID); err != nil {
		return DitherControl{}, err
	}
	s.calls = append(s.calls, SinkCall{Op: op, DisplayID: displayID})
	return s.dither[displayID], nil
}

func (s *MemorySink) SetDitherControl(ctx context.Context, displayID uint32, d DitherControl) error {
	const op = "SetDitherControl"
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.begin(ctx, op, displayID); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.calls = append(s.calls, SinkCall{Op: op, DisplayID: displayID, Dither: &d})
	s.dither[displayID] = d
	return nil
}

// Current returns the last descriptor set for the display, including ramps.
func (s *MemorySink) Current(displayID uint32) *Descriptor {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if d, ok := s.state[displayID]; ok {
		return d.Clone()
	}
	return nil
}

func (s *MemorySink) Calls() []SinkCall {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]SinkCall(nil), s.calls...)
}

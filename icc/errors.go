package icc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidProfile     = errors.New("invalid ICC profile")
	ErrIncompleteProfile  = errors.New("incomplete ICC profile")
	ErrUnsupportedTagType = errors.New("unsupported ICC tag type")
)

type InvalidProfileError struct {
	Offset   int
	Reason   string
	Expected Signature // zero when the failure is not a signature mismatch
	Got      Signature
}

func (e *InvalidProfileError) Error() string {
	if e.Expected != 0 {
		return fmt.Sprintf("invalid ICC profile: expected %s at offset 0x%x but got %s", e.Expected, e.Offset, e.Got)
	}
	return fmt.Sprintf("invalid ICC profile at offset 0x%x: %s", e.Offset, e.Reason)
}

func (e *InvalidProfileError) Is(target error) bool { return target == ErrInvalidProfile }

type IncompleteProfileError struct {
	Missing []Signature
}

func (e *IncompleteProfileError) Error() string {
	m := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		m[i] = s.String()
	}
	return "incomplete ICC profile, missing required tags: " + strings.Join(m, ", ")
}

func (e *IncompleteProfileError) Is(target error) bool { return target == ErrIncompleteProfile }

type UnsupportedTagTypeError struct {
	Tag, Type Signature
	Detail    string
}

func (e *UnsupportedTagTypeError) Error() string {
	ans := fmt.Sprintf("the %s tag has unsupported type %s", e.Tag, e.Type)
	if e.Detail != "" {
		ans += ": " + e.Detail
	}
	return ans
}

func (e *UnsupportedTagTypeError) Is(target error) bool { return target == ErrUnsupportedTagType }

func truncated(tag Signature, offset int) error {
	return &InvalidProfileError{Offset: offset, Reason: fmt.Sprintf("the %s tag is truncated", tag)}
}

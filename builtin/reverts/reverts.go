// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Class groups revert errors by what went wrong.
type Class uint8

const (
	Invariant Class = iota + 1
	Timing
	Capability
	Stake
	Validator
	DKG
)

func (c Class) String() string {
	switch c {
	case Invariant:
		return "invariant"
	case Timing:
		return "timing"
	case Capability:
		return "capability"
	case Stake:
		return "stake"
	case Validator:
		return "validator"
	case DKG:
		return "dkg"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ErrRevert is a user facing failure of an entry point. The whole call is
// reverted and nothing it wrote is kept.
type ErrRevert struct {
	class   Class
	message string
}

func New(class Class, message string) *ErrRevert {
	return &ErrRevert{class: class, message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Class() Class {
	return e.class
}

// Wrap attaches context to a revert while keeping it matchable with errors.Is.
func Wrap(err *ErrRevert, format string, args ...any) error {
	return &wrapped{ErrRevert: err, detail: fmt.Sprintf(format, args...)}
}

type wrapped struct {
	*ErrRevert
	detail string
}

func (w *wrapped) Error() string {
	return w.message + ": " + w.detail
}

func (w *wrapped) Unwrap() error {
	return w.ErrRevert
}

// IsRevertErr reports whether err carries an ErrRevert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}

// ClassOf returns the class of the revert carried by err, 0 if none.
func ClassOf(err error) Class {
	var ve *ErrRevert
	if errors.As(err, &ve) && ve != nil {
		return ve.class
	}
	return 0
}

/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package errcode defines the numeric error codes surfaced at the library
// boundary and helpers to map Go errors to them. Library packages return
// ordinary Go errors; clients that need the numeric code (CLI exit status,
// API payloads, embeddings) recover it with Of.
package errcode

import (
	"errors"
	"fmt"
)

type Code int

const (
	OK          Code = 0
	Unexpected  Code = -1
	Invalid     Code = -2
	IO          Code = -3
	Timeout     Code = -4
	NoMem       Code = -5
	Unsupported Code = -6
)

func (c Code) String() string {
	switch c {
	case OK:
		return "success"
	case Unexpected:
		return "unexpected error"
	case Invalid:
		return "invalid argument"
	case IO:
		return "input/output error"
	case Timeout:
		return "timeout"
	case NoMem:
		return "out of memory"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Error carries a boundary code together with a description.
type Error struct {
	Code Code
	What string
}

func (e *Error) Error() string {
	if e.What == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code.String(), e.What)
}

// New builds an Error with a formatted description.
func New(code Code, format string, v ...interface{}) *Error {
	return &Error{Code: code, What: fmt.Sprintf(format, v...)}
}

// Wrap attaches a boundary code to an underlying error.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return &Error{Code: code}
	}
	return &Error{Code: code, What: err.Error()}
}

// Of extracts the boundary code from err. A nil error maps to OK and an
// error without an embedded code maps to Unexpected.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unexpected
}

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

package stream

import (
	"fmt"
	"time"
)

// ErrBadFormat returned when a sample format is out of range
type ErrBadFormat struct {
	Format int
}

func (e ErrBadFormat) Error() string {
	return fmt.Sprintf("Unknown sample format: %d", e.Format)
}

// ErrNotConfigured returned when a direction is used before Config
type ErrNotConfigured struct {
	Dir string
}

func (e ErrNotConfigured) Error() string {
	return fmt.Sprintf("Stream direction not configured: %s", e.Dir)
}

// ErrDeadline returned when an operation deadline elapsed without the
// transfer completing
type ErrDeadline struct {
	Dir     string
	Timeout time.Duration
}

func (e ErrDeadline) Error() string {
	return fmt.Sprintf("Deadline elapsed on %s after %s", e.Dir, e.Timeout)
}

// ErrBorrowCap returned when a zero-copy borrow would exceed the
// in-flight bound
type ErrBorrowCap struct {
	Cap int
}

func (e ErrBorrowCap) Error() string {
	return fmt.Sprintf("Borrow cap reached: %d buffers outstanding", e.Cap)
}

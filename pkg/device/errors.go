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

package device

import (
	"fmt"
)

// ErrBadIdentifier means the device identifier string did not match
// any of the accepted forms.
type ErrBadIdentifier struct {
	Spec string
}

func (e ErrBadIdentifier) Error() string {
	return fmt.Sprintf("bad device identifier %q", e.Spec)
}

// ErrClosed means the session was used after Close.
type ErrClosed struct {
}

func (e ErrClosed) Error() string {
	return "device session is closed"
}

// ErrNoStreaming means the session transport has no DMA rings, so the
// streaming and loopback operations are unavailable.
type ErrNoStreaming struct {
}

func (e ErrNoStreaming) Error() string {
	return "transport does not expose DMA streaming"
}

// ErrFeature means the capability register reports the hardware block
// as absent.
type ErrFeature struct {
	Name string
}

func (e ErrFeature) Error() string {
	return fmt.Sprintf("feature %s not present on this board", e.Name)
}

// ErrBadRFConfig means a field of the RF configuration is out of
// range or not one of the enumerated values.
type ErrBadRFConfig struct {
	What string
}

func (e ErrBadRFConfig) Error() string {
	return fmt.Sprintf("bad rf config: %s", e.What)
}

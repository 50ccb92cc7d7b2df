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

package state

import (
	"fmt"
)

// ErrNotFound means the device has no shadow entry yet.
type ErrNotFound struct {
	Device string
	Addr   uint32
}

func (e ErrNotFound) Error() string {
	if e.Addr != 0 {
		return fmt.Sprintf("no shadow entry for %s reg %08x", e.Device, e.Addr)
	}
	return fmt.Sprintf("no shadow entries for %s", e.Device)
}

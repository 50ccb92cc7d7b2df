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
	"net"
	"strconv"
	"strings"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/errcode"
)

// Identifier is a parsed device identifier. Exactly one of Path and
// Host is set: Path for the character device, Host (plus Port) for
// the Etherbone bridge.
type Identifier struct {
	Path string
	Host string
	Port int
}

// Local reports whether the identifier names a character device.
func (id Identifier) Local() bool {
	return id.Path != ""
}

func (id Identifier) String() string {
	if id.Local() {
		return id.Path
	}
	return net.JoinHostPort(id.Host, strconv.Itoa(id.Port))
}

// ParseIdentifier parses one of the accepted identifier forms:
//
//	pcie:/dev/<name>   character device
//	eth:<ip>[:port]    Etherbone bridge
//	<ip>[:port]        Etherbone bridge
//	/absolute/path     character device
//
// An empty string selects the default character device.
func ParseIdentifier(spec string) (Identifier, error) {
	switch {
	case spec == "":
		return Identifier{Path: config.DefaultDevice}, nil
	case strings.HasPrefix(spec, "pcie:"):
		path := strings.TrimPrefix(spec, "pcie:")
		if !strings.HasPrefix(path, "/") {
			return Identifier{}, errcode.Wrap(errcode.Invalid, ErrBadIdentifier{Spec: spec})
		}
		return Identifier{Path: path}, nil
	case strings.HasPrefix(spec, "eth:"):
		return parseHostPort(spec, strings.TrimPrefix(spec, "eth:"))
	case strings.HasPrefix(spec, "/"):
		return Identifier{Path: spec}, nil
	}
	return parseHostPort(spec, spec)
}

func parseHostPort(spec, hostport string) (Identifier, error) {
	if hostport == "" {
		return Identifier{
			Host: config.DefaultEtherboneAddress,
			Port: config.DefaultEtherbonePort,
		}, nil
	}
	host := hostport
	port := config.DefaultEtherbonePort
	if i := strings.LastIndex(hostport, ":"); i >= 0 {
		host = hostport[:i]
		p, err := strconv.Atoi(hostport[i+1:])
		if err != nil || p <= 0 || p > 65535 {
			return Identifier{}, errcode.Wrap(errcode.Invalid, ErrBadIdentifier{Spec: spec})
		}
		port = p
	}
	if net.ParseIP(host) == nil {
		return Identifier{}, errcode.Wrap(errcode.Invalid, ErrBadIdentifier{Spec: spec})
	}
	return Identifier{Host: host, Port: port}, nil
}

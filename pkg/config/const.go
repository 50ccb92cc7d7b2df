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

package config

const (
	ConfigDir  = ".go-m2sdr"
	ConfigFile = "config"
	DBFile     = "state.db"

	DefaultLogLevel = "info"

	// DefaultDevice is used when no identifier is given and a local
	// character device is expected.
	DefaultDevice = "/dev/m2sdr0"

	DefaultEtherboneAddress = "192.168.1.50"
	DefaultEtherbonePort    = 1234

	DefaultAPIAddress = "127.0.0.1"
	DefaultAPIPort    = 8000

	// I2C backend selection for the SI5351 driver.
	I2CBackendFSM     = "fsm"
	I2CBackendBitBang = "bitbang"
)

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

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type EtherboneConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type APIConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type Config struct {
	LogLevel string `json:"loglevel,omitempty"`
	// Device is the default device identifier, e.g. pcie:/dev/m2sdr0
	// or eth:192.168.1.50:1234.
	Device           string `json:"device,omitempty"`
	I2CBackend       string `json:"i2c_backend,omitempty"`
	DBPath           string `json:"dbpath,omitempty"`
	*EtherboneConfig `json:"etherbone,omitempty"`
	*APIConfig       `json:"api,omitempty"`
	filepath         string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load overlays the persisted config, if any, on top of the current
// values. A missing config file is not an error.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		Device:     DefaultDevice,
		I2CBackend: I2CBackendFSM,
		DBPath:     DefaultDBPath(),
		EtherboneConfig: &EtherboneConfig{
			Address: DefaultEtherboneAddress,
			Port:    DefaultEtherbonePort,
		},
		APIConfig: &APIConfig{
			Address: DefaultAPIAddress,
			Port:    DefaultAPIPort,
		},
		filepath: DefaultConfigPath(),
	}
}

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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/litex-hub/go-m2sdr/pkg/config"
	"github.com/litex-hub/go-m2sdr/pkg/device"
	"github.com/litex-hub/go-m2sdr/pkg/srv"
)

// ApiClient talks to a running API server. Register addresses and
// values travel as hexadecimal strings, the way the CLI prints them.
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.APIConfig.Address, cfg.APIConfig.Port),
	}
}

// RegRead requests the value of a register.
func (c *ApiClient) RegRead(addr string) (string, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, addr))
	if err != nil {
		return "", err
	}
	if r.Response().StatusCode != 200 {
		return "", errors.New(r.Response().Status)
	}
	reg := &srv.RegHex{}
	if err = r.ToJSON(reg); err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegWrite requests a register write.
func (c *ApiClient) RegWrite(addr, value string) error {
	reg := &srv.RegHex{
		Addr:  addr,
		Value: value,
	}
	r, err := req.Post(fmt.Sprintf("%s/reg/w", c.ApiPrefix), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// RegCached requests the shadow of past register writes.
func (c *ApiClient) RegCached() ([]srv.RegHex, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/cached", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	var regs []srv.RegHex
	if err = r.ToJSON(&regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// Info requests the identification snapshot.
func (c *ApiClient) Info() (*srv.Info, error) {
	r, err := req.Get(fmt.Sprintf("%s/info", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	info := &srv.Info{}
	if err = r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// TimeGet requests the time-generator value in nanoseconds.
func (c *ApiClient) TimeGet() (uint64, error) {
	r, err := req.Get(fmt.Sprintf("%s/time", c.ApiPrefix))
	if err != nil {
		return 0, err
	}
	if r.Response().StatusCode != 200 {
		return 0, errors.New(r.Response().Status)
	}
	t := &srv.TimeNS{}
	if err = r.ToJSON(t); err != nil {
		return 0, err
	}
	return t.NS, nil
}

// TimeSet requests a time-generator load.
func (c *ApiClient) TimeSet(ns uint64) error {
	r, err := req.Post(fmt.Sprintf("%s/time", c.ApiPrefix), req.BodyJSON(&srv.TimeNS{NS: ns}))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// RFGet requests the last applied RF configuration.
func (c *ApiClient) RFGet() (*device.RFConfig, error) {
	r, err := req.Get(fmt.Sprintf("%s/rf", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	cfg := &device.RFConfig{}
	if err = r.ToJSON(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RFApply requests an RF configuration to be applied.
func (c *ApiClient) RFApply(cfg *device.RFConfig) error {
	r, err := req.Post(fmt.Sprintf("%s/rf", c.ApiPrefix), req.BodyJSON(cfg))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// HeaderSet requests a DMA-header toggle for one direction, "rx" or
// "tx".
func (c *ApiClient) HeaderSet(dir string, enable, strip bool) error {
	setup := &srv.HeaderSetup{Enable: enable, Strip: strip}
	r, err := req.Post(fmt.Sprintf("%s/header/%s", c.ApiPrefix, dir), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

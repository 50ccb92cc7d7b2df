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

	"github.com/litex-hub/go-m2sdr/pkg/errcode"
	"github.com/litex-hub/go-m2sdr/pkg/log"
	"github.com/litex-hub/go-m2sdr/pkg/si5351"
)

// LoopbackMode selects where the TX path is folded back into RX.
type LoopbackMode int

const (
	LoopbackDisabled LoopbackMode = iota
	// LoopbackDigital loops the TX data port back to RX inside the
	// transceiver, after the interface and before the RF chains.
	LoopbackDigital
)

// Channel and sync mode values accepted by RFConfig.
const (
	ChanMode1T1R = "1t1r"
	ChanMode2T2R = "2t2r"

	SyncInternal = "internal"
	SyncExternal = "external"
)

// RFConfig is the declarative RF front-end configuration. Frequencies
// are in Hz, gains in dB.
type RFConfig struct {
	SampleRate int64 `yaml:"samplerate"`
	Bandwidth  int64 `yaml:"bandwidth"`
	RefClkFreq int64 `yaml:"refclk_freq"`

	TXFreq int64 `yaml:"tx_freq"`
	RXFreq int64 `yaml:"rx_freq"`

	TXGain  int `yaml:"tx_gain"`  // -89..0
	RXGain1 int `yaml:"rx_gain1"` // 0..76
	RXGain2 int `yaml:"rx_gain2"` // 0..76

	Loopback     LoopbackMode `yaml:"loopback"`
	BISTTX       bool         `yaml:"bist_tx"`
	BISTRX       bool         `yaml:"bist_rx"`
	BISTToneFreq int64        `yaml:"bist_tone_freq"`

	EightBit   bool   `yaml:"eight_bit"`
	Oversample bool   `yaml:"oversample"`
	ChanMode   string `yaml:"chan_mode"`
	SyncMode   string `yaml:"sync_mode"`
}

// DefaultRFConfig returns the power-on configuration.
func DefaultRFConfig() RFConfig {
	return RFConfig{
		SampleRate: 30720000,
		Bandwidth:  56000000,
		RefClkFreq: 38400000,
		TXFreq:     2400000000,
		RXFreq:     2400000000,
		TXGain:     -20,
		RXGain1:    0,
		RXGain2:    0,
		ChanMode:   ChanMode1T1R,
		SyncMode:   SyncInternal,
	}
}

func (c *RFConfig) validate() error {
	switch {
	case c.SampleRate <= 0:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: "sample rate must be positive"})
	case c.TXGain < -89 || c.TXGain > 0:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: "tx gain out of -89..0"})
	case c.RXGain1 < 0 || c.RXGain1 > 76 || c.RXGain2 < 0 || c.RXGain2 > 76:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: "rx gain out of 0..76"})
	case c.Loopback != LoopbackDisabled && c.Loopback != LoopbackDigital:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: "unknown loopback mode"})
	}
	switch c.ChanMode {
	case "", ChanMode1T1R, ChanMode2T2R:
	default:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: fmt.Sprintf("unknown chan mode %q", c.ChanMode)})
	}
	switch c.SyncMode {
	case "", SyncInternal, SyncExternal:
	default:
		return errcode.Wrap(errcode.Invalid, ErrBadRFConfig{What: fmt.Sprintf("unknown sync mode %q", c.SyncMode)})
	}
	return nil
}

// ApplyRF programs the clocking and the transceiver from a declarative
// configuration. The step order matters: reference clock first, then
// rate and bandwidth, channel mode, tuning, gains, and the BIST and
// loopback paths last so their state is observable once everything
// else is programmed. Each step is idempotent at the register level;
// on failure the session is left non-corrupt but indeterminate, and
// clients re-apply a full configuration rather than expect rollback.
func (d *Device) ApplyRF(cfg RFConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	a := NewAD9361(d.t)

	if cfg.RefClkFreq != 0 {
		table, ok := refClkTables[cfg.RefClkFreq]
		if !ok {
			return errcode.Wrap(errcode.Invalid,
				ErrBadRFConfig{What: fmt.Sprintf("no clock table for refclk %d Hz", cfg.RefClkFreq)})
		}
		log.Info("rf: programming si5351 for %d Hz reference", cfg.RefClkFreq)
		if err := si5351.Configure(d.i2c, si5351.DefaultAddr, table); err != nil {
			return err
		}
	}

	log.Info("rf: sample rate %d Hz, bandwidth %d Hz", cfg.SampleRate, cfg.Bandwidth)
	if err := a.WriteTable(basebandTable(cfg)); err != nil {
		return err
	}

	if err := a.WriteTable(chanModeTable(cfg.ChanMode)); err != nil {
		return err
	}

	log.Info("rf: tuning tx %d Hz, rx %d Hz", cfg.TXFreq, cfg.RXFreq)
	if err := a.WriteTable(tuneTable(regTXTuneBase, cfg.TXFreq)); err != nil {
		return err
	}
	if err := a.WriteTable(tuneTable(regRXTuneBase, cfg.RXFreq)); err != nil {
		return err
	}

	if err := a.WriteTable(gainTable(cfg)); err != nil {
		return err
	}

	if err := a.WriteTable(bistTable(cfg)); err != nil {
		return err
	}

	d.rf = &cfg
	return nil
}

// RF returns the last configuration applied in this session, or nil.
func (d *Device) RF() *RFConfig {
	return d.rf
}

// Transceiver register numbers driven by the applier. The bulk
// initialization sequences are opaque vendor tables; only the handful
// of registers the applier computes are named here.
const (
	regTXEnableFilter = 0x002
	regRXEnableFilter = 0x003
	regInputSelect    = 0x004
	regClockChain     = 0x005
	regPortConfig     = 0x010

	regTXAttenLo = 0x073
	regTXAttenHi = 0x074
	regRXGain1   = 0x109
	regRXGain2   = 0x10c

	regRXTuneBase = 0x230
	regTXTuneBase = 0x270

	regBISTConfig  = 0x3f4
	regBISTObserve = 0x3f5
)

// basebandTable derives the clock-chain and filter programming from
// the requested rate and bandwidth.
func basebandTable(cfg RFConfig) []SPIWrite {
	var clock uint8
	if cfg.Oversample {
		clock |= 1 << 0
	}
	if cfg.EightBit {
		clock |= 1 << 1
	}
	// Coarse analog filter select: wide above 28 MHz, narrow below.
	var filt uint8
	if cfg.Bandwidth != 0 && cfg.Bandwidth <= 28000000 {
		filt = 0x01
	}
	var port uint8 = 0x08
	if cfg.EightBit {
		port |= 0x01
	}
	return []SPIWrite{
		{Reg: regClockChain, Val: clock},
		{Reg: regInputSelect, Val: filt},
		{Reg: regPortConfig, Val: port},
	}
}

func chanModeTable(mode string) []SPIWrite {
	var enable uint8 = 0x01
	if mode == ChanMode2T2R {
		enable = 0x03
	}
	return []SPIWrite{
		{Reg: regTXEnableFilter, Val: enable},
		{Reg: regRXEnableFilter, Val: enable},
	}
}

// tuneTable spreads the tuning frequency, in kHz, over four bytes at
// the synthesizer base, low byte first.
func tuneTable(base uint16, freq int64) []SPIWrite {
	khz := uint32(freq / 1000)
	return []SPIWrite{
		{Reg: base + 0, Val: uint8(khz)},
		{Reg: base + 1, Val: uint8(khz >> 8)},
		{Reg: base + 2, Val: uint8(khz >> 16)},
		{Reg: base + 3, Val: uint8(khz >> 24)},
	}
}

func gainTable(cfg RFConfig) []SPIWrite {
	// TX attenuation in quarter-dB steps, 9 bits over two registers.
	atten := uint16(-cfg.TXGain) * 4
	return []SPIWrite{
		{Reg: regTXAttenLo, Val: uint8(atten)},
		{Reg: regTXAttenHi, Val: uint8(atten>>8) & 0x01},
		{Reg: regRXGain1, Val: uint8(cfg.RXGain1)},
		{Reg: regRXGain2, Val: uint8(cfg.RXGain2)},
	}
}

func bistTable(cfg RFConfig) []SPIWrite {
	var bist uint8
	if cfg.BISTTX {
		bist |= 1 << 0
	}
	if cfg.BISTRX {
		bist |= 1 << 1
	}
	if cfg.BISTToneFreq != 0 {
		// Tone frequency select, Fs/32 or Fs/16.
		bist |= 1 << 2
	}
	var observe uint8
	if cfg.Loopback == LoopbackDigital {
		observe = 0x01
	}
	return []SPIWrite{
		{Reg: regBISTConfig, Val: bist},
		{Reg: regBISTObserve, Val: observe},
	}
}

// refClkTables holds the SI5351 programming for each supported
// reference frequency. The register values are opaque vendor data.
var refClkTables = map[int64][]si5351.RegWrite{
	38400000: {
		{Reg: 15, Val: 0x00},
		{Reg: 24, Val: 0x00},
		{Reg: 25, Val: 0x00},
		{Reg: 26, Val: 0x00},
		{Reg: 27, Val: 0x05},
		{Reg: 28, Val: 0x00},
		{Reg: 29, Val: 0x0c},
		{Reg: 30, Val: 0x66},
		{Reg: 31, Val: 0x00},
		{Reg: 32, Val: 0x00},
		{Reg: 33, Val: 0x02},
		{Reg: 42, Val: 0x00},
		{Reg: 43, Val: 0x01},
		{Reg: 44, Val: 0x00},
		{Reg: 45, Val: 0x09},
		{Reg: 46, Val: 0x00},
		{Reg: 47, Val: 0x00},
		{Reg: 48, Val: 0x00},
		{Reg: 49, Val: 0x00},
	},
}

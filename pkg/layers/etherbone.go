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

package layers

import (
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// EtherboneLayerNum identifies the layer
	EtherboneLayerNum = 2001

	// EtherboneFrameLen is the fixed length of a single-word frame:
	// a 4-byte packet header, 4 bytes of padding, a 4-byte record
	// header and two 32-bit operands.
	EtherboneFrameLen = 20

	EtherboneMagic0  = 0x4e
	EtherboneMagic1  = 0x6f
	EtherboneVersion = 0x10 // version 1, no probe flags
	EtherboneAddrSz  = 0x44 // 32-bit addresses, 32-bit ports
	EtherboneByteEn  = 0x0f // all four byte lanes
)

// EtherboneLayer carries a single-word Wishbone access. A write frame
// holds both the target address and the data word; a read request holds
// the address only. Read replies come back as write frames whose data
// word is the register value, so decoding a reply yields Read=false and
// the value in Data.
type EtherboneLayer struct {
	layers.BaseLayer
	Read bool
	Addr uint32
	Data uint32 // ignored when Read is true
}

var EtherboneLayerType = gopacket.RegisterLayerType(EtherboneLayerNum,
	gopacket.LayerTypeMetadata{Name: "EtherboneLayerType", Decoder: gopacket.DecodeFunc(DecodeEtherboneLayer)})

// LayerType returns the type of the Etherbone layer in the layer catalog
func (eb *EtherboneLayer) LayerType() gopacket.LayerType {
	return EtherboneLayerType
}

// Serialize serializes the frame into buf which must be at least
// EtherboneFrameLen bytes long. Operands are big-endian on the wire.
func (eb *EtherboneLayer) Serialize(buf []byte) {
	buf[0] = EtherboneMagic0
	buf[1] = EtherboneMagic1
	buf[2] = EtherboneVersion
	buf[3] = EtherboneAddrSz
	buf[4] = 0
	buf[5] = 0
	buf[6] = 0
	buf[7] = 0
	buf[8] = 0 // wishbone flags
	buf[9] = EtherboneByteEn
	if eb.Read {
		buf[10] = 0 // wcount
		buf[11] = 1 // rcount
		binary.BigEndian.PutUint32(buf[12:16], 0)
		binary.BigEndian.PutUint32(buf[16:20], eb.Addr)
	} else {
		buf[10] = 1
		buf[11] = 0
		binary.BigEndian.PutUint32(buf[12:16], eb.Addr)
		binary.BigEndian.PutUint32(buf[16:20], eb.Data)
	}
}

// SerializeTo serializes the Etherbone layer into bytes and writes the bytes to the SerializeBuffer
func (eb *EtherboneLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(EtherboneFrameLen)
	if err != nil {
		return err
	}
	eb.Serialize(bytes)
	return nil
}

func (eb *EtherboneLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < EtherboneFrameLen {
		df.SetTruncated()
		return ErrShortFrame{Len: len(data)}
	}
	if data[0] != EtherboneMagic0 || data[1] != EtherboneMagic1 {
		return ErrBadMagic{Got: [2]byte{data[0], data[1]}}
	}
	eb.BaseLayer = layers.BaseLayer{
		Contents: data[:EtherboneFrameLen],
		Payload:  []byte{},
	}
	wcount := data[10]
	rcount := data[11]
	switch {
	case wcount == 1:
		eb.Read = false
		eb.Addr = binary.BigEndian.Uint32(data[12:16])
		eb.Data = binary.BigEndian.Uint32(data[16:20])
	case rcount == 1:
		eb.Read = true
		eb.Addr = binary.BigEndian.Uint32(data[16:20])
		eb.Data = 0
	default:
		return ErrBadCounts{WCount: wcount, RCount: rcount}
	}
	return nil
}

func DecodeEtherboneLayer(data []byte, p gopacket.PacketBuilder) error {
	eb := &EtherboneLayer{}
	err := eb.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(eb)
	return nil
}

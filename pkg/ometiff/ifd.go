package ometiff

import (
	"encoding/binary"
)

// TIFF field types used by this writer.
const (
	typeASCII = 2
	typeShort = 3
	typeLong  = 4
	typeLong8 = 16
	typeIFD8  = 18
)

// Tag numbers used by this writer.
const (
	tagNewSubfileType  = 254
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagImageDesc       = 270
	tagSamplesPerPixel = 277
	tagSoftware        = 305
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSubIFDs         = 330
	tagSampleFormat    = 339
)

// subfileReducedImage flags an IFD as a reduced-resolution derivative of
// the base image.
const subfileReducedImage = 1

type ifdEntry struct {
	tag     uint16
	typ     uint16
	count   uint64
	inline  [8]byte // value when the payload fits in 8 bytes
	payload []byte  // overflow value, stored after the entry table
}

// ifdEncoder assembles one BigTIFF IFD: a sorted entry table followed by
// an overflow area holding values wider than 8 bytes. Entries must be
// added in ascending tag order.
type ifdEncoder struct {
	entries []ifdEntry
}

func (e *ifdEncoder) addShort(tag uint16, v uint16) {
	var ent ifdEntry
	ent.tag = tag
	ent.typ = typeShort
	ent.count = 1
	binary.LittleEndian.PutUint16(ent.inline[:], v)
	e.entries = append(e.entries, ent)
}

func (e *ifdEncoder) addLong(tag uint16, v uint32) {
	var ent ifdEntry
	ent.tag = tag
	ent.typ = typeLong
	ent.count = 1
	binary.LittleEndian.PutUint32(ent.inline[:], v)
	e.entries = append(e.entries, ent)
}

func (e *ifdEncoder) addLong8s(tag uint16, typ uint16, vs []uint64) {
	var ent ifdEntry
	ent.tag = tag
	ent.typ = typ
	ent.count = uint64(len(vs))
	if len(vs) == 1 {
		binary.LittleEndian.PutUint64(ent.inline[:], vs[0])
	} else {
		ent.payload = make([]byte, 8*len(vs))
		for i, v := range vs {
			binary.LittleEndian.PutUint64(ent.payload[8*i:], v)
		}
	}
	e.entries = append(e.entries, ent)
}

func (e *ifdEncoder) addASCII(tag uint16, s string) {
	var ent ifdEntry
	ent.tag = tag
	ent.typ = typeASCII
	ent.count = uint64(len(s) + 1) // trailing NUL
	if ent.count <= 8 {
		copy(ent.inline[:], s)
	} else {
		ent.payload = make([]byte, len(s)+1)
		copy(ent.payload, s)
	}
	e.entries = append(e.entries, ent)
}

// size returns the encoded IFD length including the overflow area.
func (e *ifdEncoder) size() int {
	n := 8 + 20*len(e.entries) + 8
	for _, ent := range e.entries {
		if ent.payload != nil {
			n += len(ent.payload)
			if len(ent.payload)%2 == 1 {
				n++ // keep overflow offsets word-aligned
			}
		}
	}
	return n
}

// encode serializes the IFD as it will appear at fileOffset, with nextIFD
// as the following-IFD pointer (0 terminates the chain).
func (e *ifdEncoder) encode(fileOffset, nextIFD uint64) []byte {
	buf := make([]byte, 0, e.size())

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(e.entries)))
	buf = append(buf, scratch[:]...)

	overflowOff := fileOffset + uint64(8+20*len(e.entries)+8)
	var overflow []byte
	for _, ent := range e.entries {
		binary.LittleEndian.PutUint16(scratch[:2], ent.tag)
		buf = append(buf, scratch[:2]...)
		binary.LittleEndian.PutUint16(scratch[:2], ent.typ)
		buf = append(buf, scratch[:2]...)
		binary.LittleEndian.PutUint64(scratch[:], ent.count)
		buf = append(buf, scratch[:]...)

		if ent.payload == nil {
			buf = append(buf, ent.inline[:]...)
			continue
		}
		binary.LittleEndian.PutUint64(scratch[:], overflowOff+uint64(len(overflow)))
		buf = append(buf, scratch[:]...)
		overflow = append(overflow, ent.payload...)
		if len(ent.payload)%2 == 1 {
			overflow = append(overflow, 0)
		}
	}

	binary.LittleEndian.PutUint64(scratch[:], nextIFD)
	buf = append(buf, scratch[:]...)
	return append(buf, overflow...)
}

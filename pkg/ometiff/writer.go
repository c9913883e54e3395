// Package ometiff writes a multi-channel image pyramid into a single tiled
// BigTIFF container with OME-XML metadata. Each channel gets one base page
// at full resolution whose SubIFDs tag links that channel's reduced-
// resolution pages, so a reader can discover the whole pyramid from the
// base entry. Tile data is streamed to the file as it is produced; the IFD
// tables are written after all data and the header is patched last, which
// keeps peak memory bounded to one channel batch.
package ometiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"imgpyramid/internal/models"
)

// bigtiffHeaderSize is the fixed BigTIFF header length; tile data starts
// immediately after it.
const bigtiffHeaderSize = 16

// PlaneGetter supplies planes by (level, channel), typically the pipeline's
// plane store.
type PlaneGetter interface {
	Get(level, channel int) (*models.Plane, error)
}

// Params configures one container write.
type Params struct {
	// Levels is the pyramid descriptor, level 0 first
	Levels []models.LevelDims

	// Channels is the channel count, constant across levels
	Channels int

	// BitsPerSample is the sample depth shared by all planes, 8 or 16
	BitsPerSample int

	// TileEdge is the square tile size in pixels. Default 512.
	TileEdge int

	// Compression is the codec applied to every tile of the run
	Compression Compression

	// WriteBatchSize bounds how many channel planes are resident while a
	// level is written. Default 3.
	WriteBatchSize int

	// PixelSizeMicrometers is the physical pixel size copied verbatim from
	// the reference input into the base metadata
	PixelSizeMicrometers float64

	// ChannelNames are the per-channel display names; missing entries fall
	// back to Channel_<index>
	ChannelNames []string

	// Progress, when set, is called after each level's tile data is written
	Progress func(levelsDone, totalLevels int)
}

// page accumulates everything needed to emit one IFD after tile data has
// been streamed.
type page struct {
	level          int
	channel        int
	width, height  int
	tileOffsets    []uint64
	tileByteCounts []uint64
	subIFDs        []uint64
	description    string
	software       string
	subfileType    uint32
	offset         uint64
}

// Write serializes every level and channel supplied by planes into one
// container file at path.
func Write(path string, planes PlaneGetter, p Params) error {
	if len(p.Levels) == 0 {
		return fmt.Errorf("no pyramid levels to write")
	}
	if p.Channels <= 0 {
		return fmt.Errorf("no channels to write")
	}
	if p.TileEdge <= 0 {
		p.TileEdge = 512
	}
	if p.WriteBatchSize <= 0 {
		p.WriteBatchSize = 3
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create container file: %w", err)
	}
	defer f.Close()

	w := &writer{f: f, p: p, planes: planes}
	if err := w.run(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finalize container file: %w", err)
	}
	return nil
}

type writer struct {
	f      *os.File
	p      Params
	planes PlaneGetter
	off    uint64

	// pages[channel][levelIdx]
	pages [][]*page
}

func (w *writer) run() error {
	w.pages = make([][]*page, w.p.Channels)
	for ch := 0; ch < w.p.Channels; ch++ {
		w.pages[ch] = make([]*page, len(w.p.Levels))
		for li, lvl := range w.p.Levels {
			pg := &page{
				level:   lvl.Level,
				channel: ch,
				width:   lvl.Width,
				height:  lvl.Height,
			}
			if lvl.Level > 0 {
				pg.subfileType = subfileReducedImage
			}
			w.pages[ch][li] = pg
		}
	}

	// The very first page carries the base metadata; it is never repeated
	// on other pages or levels.
	w.pages[0][0].description = omeDescription(w.p)
	w.pages[0][0].software = "imgpyramid"

	if err := w.writeHeader(0); err != nil {
		return err
	}
	// WriteAt does not move the file offset; position the sequential
	// writes just past the header.
	if _, err := w.f.Seek(bigtiffHeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("container write failed: %w", err)
	}
	w.off = bigtiffHeaderSize

	for li, lvl := range w.p.Levels {
		if err := w.writeLevel(li, lvl); err != nil {
			return err
		}
		if w.p.Progress != nil {
			w.p.Progress(li+1, len(w.p.Levels))
		}
	}

	firstIFD, err := w.writeIFDs()
	if err != nil {
		return err
	}
	return w.writeHeader(firstIFD)
}

// writeHeader emits the little-endian BigTIFF header. It is written once
// with a zero first-IFD offset before any data, and again with the real
// offset once the IFD tables exist.
func (w *writer) writeHeader(firstIFD uint64) error {
	var buf [bigtiffHeaderSize]byte
	copy(buf[0:], "II")
	binary.LittleEndian.PutUint16(buf[2:], 43)
	binary.LittleEndian.PutUint16(buf[4:], 8)
	binary.LittleEndian.PutUint16(buf[6:], 0)
	binary.LittleEndian.PutUint64(buf[8:], firstIFD)
	if _, err := w.f.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("container write failed: %w", err)
	}
	return nil
}

// writeLevel streams one level's tile data, pulling planes from the store
// in channel batches of WriteBatchSize and releasing each batch before the
// next is loaded. Channels within a batch stay in ascending index order.
func (w *writer) writeLevel(li int, lvl models.LevelDims) error {
	for start := 0; start < w.p.Channels; start += w.p.WriteBatchSize {
		end := min(start+w.p.WriteBatchSize, w.p.Channels)

		batch := make([]*models.Plane, 0, end-start)
		for ch := start; ch < end; ch++ {
			plane, err := w.planes.Get(lvl.Level, ch)
			if err != nil {
				return err
			}
			if plane.Width != lvl.Width || plane.Height != lvl.Height {
				return fmt.Errorf("level %d channel %d: plane is %dx%d, level expects %dx%d",
					lvl.Level, ch, plane.Width, plane.Height, lvl.Width, lvl.Height)
			}
			batch = append(batch, plane)
		}

		if err := w.writeBatch(li, start, batch); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch emits the tile data for one multi-channel batch.
func (w *writer) writeBatch(li, startChannel int, batch []*models.Plane) error {
	edge := w.p.TileEdge
	for i, plane := range batch {
		pg := w.pages[startChannel+i][li]
		tilesX := (plane.Width + edge - 1) / edge
		tilesY := (plane.Height + edge - 1) / edge

		for ty := 0; ty < tilesY; ty++ {
			for tx := 0; tx < tilesX; tx++ {
				raw := extractTile(plane, tx, ty, edge)
				encoded, err := w.p.Compression.encodeTile(raw)
				if err != nil {
					return err
				}
				if _, err := w.f.Write(encoded); err != nil {
					return fmt.Errorf("container write failed: %w", err)
				}
				pg.tileOffsets = append(pg.tileOffsets, w.off)
				pg.tileByteCounts = append(pg.tileByteCounts, uint64(len(encoded)))
				w.off += uint64(len(encoded))
			}
		}
	}
	return nil
}

// extractTile copies one tile's samples into a zero-padded square buffer.
func extractTile(p *models.Plane, tx, ty, edge int) []byte {
	bps := p.BytesPerSample()
	buf := make([]byte, edge*edge*bps)

	x0 := tx * edge
	y0 := ty * edge
	copyW := min(edge, p.Width-x0)
	copyH := min(edge, p.Height-y0)

	for row := 0; row < copyH; row++ {
		srcOff := ((y0+row)*p.Width + x0) * bps
		dstOff := row * edge * bps
		copy(buf[dstOff:dstOff+copyW*bps], p.Pix[srcOff:srcOff+copyW*bps])
	}
	return buf
}

// writeIFDs lays out and writes every page's IFD after the tile data. File
// order is channel-major: each channel's base page followed by its reduced
// pages; base pages are chained, reduced pages are reachable only through
// their base page's SubIFDs tag. Returns the offset of the first IFD.
func (w *writer) writeIFDs() (uint64, error) {
	// IFD offsets must stay word-aligned; compressed tile data can end
	// anywhere.
	if pad := int(w.off % 8); pad != 0 {
		zeros := make([]byte, 8-pad)
		if _, err := w.f.Write(zeros); err != nil {
			return 0, fmt.Errorf("container write failed: %w", err)
		}
		w.off += uint64(len(zeros))
	}

	// First pass: sizes and offsets. Encoding is deterministic, so a dry
	// encode yields the exact length.
	off := w.off
	for ch := 0; ch < w.p.Channels; ch++ {
		for _, pg := range w.pages[ch] {
			pg.offset = off
			off += uint64(w.pageEncoder(pg).size())
		}
	}

	// Link each base page to its channel's reduced pages.
	for ch := 0; ch < w.p.Channels; ch++ {
		base := w.pages[ch][0]
		base.subIFDs = base.subIFDs[:0]
		for _, pg := range w.pages[ch][1:] {
			base.subIFDs = append(base.subIFDs, pg.offset)
		}
	}

	firstIFD := w.pages[0][0].offset
	for ch := 0; ch < w.p.Channels; ch++ {
		for li, pg := range w.pages[ch] {
			var next uint64
			if li == 0 && ch+1 < w.p.Channels {
				next = w.pages[ch+1][0].offset
			}
			block := w.pageEncoder(pg).encode(pg.offset, next)
			if _, err := w.f.Write(block); err != nil {
				return 0, fmt.Errorf("container write failed: %w", err)
			}
			w.off += uint64(len(block))
		}
	}
	return firstIFD, nil
}

// pageEncoder builds the tag table for one page. Tags must stay in
// ascending numeric order.
func (w *writer) pageEncoder(pg *page) *ifdEncoder {
	e := &ifdEncoder{}
	e.addLong(tagNewSubfileType, pg.subfileType)
	e.addLong(tagImageWidth, uint32(pg.width))
	e.addLong(tagImageLength, uint32(pg.height))
	e.addShort(tagBitsPerSample, uint16(w.p.BitsPerSample))
	e.addShort(tagCompression, w.p.Compression.tiffScheme())
	e.addShort(tagPhotometric, 1) // BlackIsZero
	if pg.description != "" {
		e.addASCII(tagImageDesc, pg.description)
	}
	e.addShort(tagSamplesPerPixel, 1)
	if pg.software != "" {
		e.addASCII(tagSoftware, pg.software)
	}
	e.addLong(tagTileWidth, uint32(w.p.TileEdge))
	e.addLong(tagTileLength, uint32(w.p.TileEdge))
	e.addLong8s(tagTileOffsets, typeLong8, pg.tileOffsets)
	e.addLong8s(tagTileByteCounts, typeLong8, pg.tileByteCounts)
	if len(pg.subIFDs) > 0 {
		e.addLong8s(tagSubIFDs, typeIFD8, pg.subIFDs)
	}
	e.addShort(tagSampleFormat, 1) // unsigned integer samples
	return e
}

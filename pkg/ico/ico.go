// Package ico assembles square PNG images into a Windows .ico container.
//
// Layout (little endian):
//
//	ICONDIR       reserved u16 = 0, type u16 = 1, count u16
//	ICONDIRENTRY  width u8, height u8, colors u8, reserved u8,
//	              planes u16, bitcount u16, size u32, offset u32   (x count)
//	payloads      PNG data in directory order
//
// A stored width or height of 0 means 256.
package ico

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/hashicorp/go-hclog"

	styreneerrors "github.com/provide-io/styrene/pkg/errors"
)

const (
	headerSize = 6
	entrySize  = 16

	MinSize  = 16
	MaxSize  = 256
	SizeStep = 8
)

// Image is one PNG payload and its pixel dimensions.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// DirEntry is one ICONDIRENTRY record.
type DirEntry struct {
	Width    uint8
	Height   uint8
	Colors   uint8
	Reserved uint8
	Planes   uint16
	BitCount uint16
	Size     uint32
	Offset   uint32
}

type header struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

// Encode builds an .ico file from images. Images that are not square, not
// a multiple of 8, or outside 16..256 are dropped with a warning. It is an
// error if nothing is left.
func Encode(images []Image, logger hclog.Logger) ([]byte, error) {
	var usable []Image
	for i, img := range images {
		s := img.Width
		switch {
		case img.Width != img.Height:
			logger.Warn("⚠️ image ignored: not square", "index", i, "width", img.Width, "height", img.Height)
		case s%SizeStep != 0:
			logger.Warn("⚠️ image ignored: size not a multiple of 8", "index", i, "size", s)
		case s < MinSize:
			logger.Warn("⚠️ image ignored: smaller than 16x16", "index", i, "size", s)
		case s > MaxSize:
			logger.Warn("⚠️ image ignored: larger than 256x256", "index", i, "size", s)
		case len(img.Data) == 0:
			logger.Warn("⚠️ image ignored: no data", "index", i, "size", s)
		default:
			usable = append(usable, img)
		}
	}
	if len(usable) == 0 {
		return nil, styreneerrors.Assetf("no usable images for icon")
	}

	// Largest first, by real size; the 256 encoding happens afterwards.
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Width > usable[j].Width
	})

	var buf bytes.Buffer
	hdr := header{Reserved: 0, Type: 1, Count: uint16(len(usable))}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}

	offset := uint32(headerSize + entrySize*len(usable))
	for _, img := range usable {
		entry := DirEntry{
			Width:    storedSize(img.Width),
			Height:   storedSize(img.Height),
			Planes:   0,
			BitCount: 32,
			Size:     uint32(len(img.Data)),
			Offset:   offset,
		}
		if err := binary.Write(&buf, binary.LittleEndian, entry); err != nil {
			return nil, err
		}
		offset += entry.Size
	}

	for _, img := range usable {
		buf.Write(img.Data)
	}

	logger.Debug("icon encoded", "images", len(usable), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func storedSize(s int) uint8 {
	if s == MaxSize {
		return 0
	}
	return uint8(s)
}

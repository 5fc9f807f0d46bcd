// This file is part of Gopher464.
//
// Gopher464 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher464 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher464.  If not, see <https://www.gnu.org/licenses/>.

// Package dsk handles floppy disk image files. Two on-disk encodings
// exist, the original format with a uniform track size and the
// extended format with a per-track size table; both parse to the same
// in-memory shape. Serialize always writes the original uniform
// layout.
package dsk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hathersage/gopher464/curated"
)

// Error patterns for disk image failures.
const (
	NotADiskImage = "dsk: not a disk image"
	Truncated     = "dsk: image truncated at track %d"
	BadTrack      = "dsk: bad track header at track %d"
)

var (
	standardSignature = []byte("MV - CPCEMU Disk-File\r\nDisk-Info\r\n")
	extendedSignature = []byte("EXTENDED CPC DSK File\r\nDisk-Info\r\n")
	trackSignature    = []byte("Track-Info\r\n")
)

// header geometry
const (
	headerSize     = 0x100
	creatorOffset  = 0x22
	creatorLength  = 14
	trackHeaderLen = 0x100
)

// Sector is one sector of a track: the four bytes of address mark
// metadata, the two recorded controller status bytes and the payload.
type Sector struct {
	Track   uint8
	Side    uint8
	ID      uint8
	Size    uint8
	Status1 uint8
	Status2 uint8
	Data    []uint8
}

// Track is one side of one cylinder.
type Track struct {
	Number     uint8
	Side       uint8
	SectorSize uint8
	GapLength  uint8
	Filler     uint8
	Sectors    []Sector
}

// FindSector returns the sector with the given ID, or nil. Sector IDs
// are arbitrary bytes chosen at format time, not indexes.
func (t *Track) FindSector(id uint8) *Sector {
	for i := range t.Sectors {
		if t.Sectors[i].ID == id {
			return &t.Sectors[i]
		}
	}
	return nil
}

// Disk is a parsed disk image.
type Disk struct {
	Extended  bool
	Creator   string
	NumTracks uint8
	NumSides  uint8
	Tracks    []Track
}

// sectorBytes is the payload size encoded by a size field: 0x80 << n.
func sectorBytes(size uint8) int {
	return 0x80 << size
}

// NewDisk parses a disk image. The returned error is curated; a failed
// parse leaves no partial state behind.
func NewDisk(data []uint8) (*Disk, error) {
	if len(data) < headerSize {
		return nil, curated.Errorf(NotADiskImage)
	}

	var extended bool
	switch {
	case bytes.Equal(data[:0x08], standardSignature[:0x08]):
		// images in the wild vary after the first eight bytes so only
		// those are significant
		extended = false
	case bytes.Equal(data[:0x22], extendedSignature[:0x22]):
		extended = true
	default:
		return nil, curated.Errorf(NotADiskImage)
	}

	dsk := &Disk{
		Extended:  extended,
		Creator:   string(bytes.TrimRight(data[creatorOffset:creatorOffset+creatorLength], "\x00")),
		NumTracks: data[0x30],
		NumSides:  data[0x31],
	}

	trackSize := int(binary.LittleEndian.Uint16(data[0x32:0x34]))

	numBlocks := int(dsk.NumTracks) * int(dsk.NumSides)
	offset := headerSize
	for block := 0; block < numBlocks; block++ {
		if !extended {
			offset = headerSize + block*trackSize
		}

		track, err := parseTrack(data, offset, block)
		if err != nil {
			return nil, err
		}
		dsk.Tracks = append(dsk.Tracks, track)

		if extended {
			// the per-track size table holds each block size in units
			// of 0x100 bytes
			if 0x34+block >= headerSize {
				return nil, curated.Errorf(Truncated, block)
			}
			offset += int(data[0x34+block]) << 8
		}
	}

	return dsk, nil
}

func parseTrack(data []uint8, offset int, block int) (Track, error) {
	if offset+trackHeaderLen > len(data) {
		return Track{}, curated.Errorf(Truncated, block)
	}
	if !bytes.Equal(data[offset:offset+len(trackSignature)], trackSignature) {
		return Track{}, curated.Errorf(BadTrack, block)
	}

	track := Track{
		Number:     data[offset+0x10],
		Side:       data[offset+0x11],
		SectorSize: data[offset+0x14],
		GapLength:  data[offset+0x16],
		Filler:     data[offset+0x17],
	}

	// size fields above 7 would overflow the shifted payload size
	if track.SectorSize > 7 {
		return Track{}, curated.Errorf(BadTrack, block)
	}

	numSectors := int(data[offset+0x15])
	size := sectorBytes(track.SectorSize)

	for s := 0; s < numSectors; s++ {
		info := offset + 0x18 + 8*s
		dataStart := offset + trackHeaderLen + size*s

		if dataStart+size > len(data) {
			return Track{}, curated.Errorf(Truncated, block)
		}

		sector := Sector{
			Track:   data[info],
			Side:    data[info+1],
			ID:      data[info+2],
			Size:    data[info+3],
			Status1: data[info+4],
			Status2: data[info+5],
			Data:    append([]uint8(nil), data[dataStart:dataStart+size]...),
		}
		track.Sectors = append(track.Sectors, sector)
	}

	return track, nil
}

// Track returns the track at the physical position, or nil when the
// position is beyond the image.
func (d *Disk) Track(track, side uint8) *Track {
	idx := int(track)*int(d.NumSides) + int(side)
	if track >= d.NumTracks || side >= d.NumSides || idx >= len(d.Tracks) {
		return nil
	}
	return &d.Tracks[idx]
}

// Serialize encodes the disk in the original uniform layout,
// regardless of the encoding it was parsed from. Parsing a uniform
// image and serialising it again reproduces the input byte for byte.
func (d *Disk) Serialize() []uint8 {
	// every track block must be the same size: large enough for the
	// biggest track
	trackSize := 0
	for i := range d.Tracks {
		s := trackHeaderLen + sectorBytes(d.Tracks[i].SectorSize)*len(d.Tracks[i].Sectors)
		if s > trackSize {
			trackSize = s
		}
	}

	out := make([]uint8, headerSize+trackSize*len(d.Tracks))

	copy(out, standardSignature)
	copy(out[creatorOffset:], d.Creator)
	out[0x30] = d.NumTracks
	out[0x31] = d.NumSides
	binary.LittleEndian.PutUint16(out[0x32:], uint16(trackSize))

	for i := range d.Tracks {
		t := &d.Tracks[i]
		block := out[headerSize+i*trackSize:]

		copy(block, trackSignature)
		block[0x10] = t.Number
		block[0x11] = t.Side
		block[0x14] = t.SectorSize
		block[0x15] = uint8(len(t.Sectors))
		block[0x16] = t.GapLength
		block[0x17] = t.Filler

		size := sectorBytes(t.SectorSize)
		for s := range t.Sectors {
			sec := &t.Sectors[s]
			info := 0x18 + 8*s
			block[info] = sec.Track
			block[info+1] = sec.Side
			block[info+2] = sec.ID
			block[info+3] = sec.Size
			block[info+4] = sec.Status1
			block[info+5] = sec.Status2
			copy(block[trackHeaderLen+size*s:], sec.Data)
		}
	}

	return out
}

// String summarises the disk geometry.
func (d *Disk) String() string {
	return fmt.Sprintf("%d tracks, %d sides", d.NumTracks, d.NumSides)
}

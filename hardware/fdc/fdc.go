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

// Package fdc implements a NEC765 style floppy disk controller,
// driven through two ports: the read-only main status register and
// the bidirectional data register, plus the motor port.
//
// Commands move the controller through the usual protocol phases. A
// command opcode and its parameter bytes are written to the data
// register; transfer commands then move sector data through the same
// register during the execution phase; finally the result bytes are
// read back. Unlike the real chip there is no rotational or seek
// latency, every command completes as soon as its last byte arrives.
//
// Errors are never returned to Go callers. As on the real hardware
// they surface in the status registers of the command result.
package fdc

import (
	"github.com/hathersage/gopher464/dsk"
	"github.com/hathersage/gopher464/logger"
)

// protocol phase
type phase int

const (
	phaseIdle phase = iota
	phaseCommand
	phaseExecution
	phaseResult
)

// command opcodes after masking off the MT/MF/SK option bits
const (
	cmdReadData             = 0x06
	cmdWriteData            = 0x05
	cmdReadID               = 0x0a
	cmdFormatTrack          = 0x0d
	cmdRecalibrate          = 0x07
	cmdSenseInterruptStatus = 0x08
	cmdSenseDriveStatus     = 0x04
	cmdSpecify              = 0x03
	cmdSeek                 = 0x0f
)

// main status register bits
const (
	statusRequestForMaster = 0x80
	statusDataDirection    = 0x40
	statusExecutionMode    = 0x20
	statusControllerBusy   = 0x10
)

// ST0 bits
const (
	st0AbnormalTermination = 0x40
	st0InvalidCommand      = 0x80
	st0SeekEnd             = 0x20
	st0NotReady            = 0x08
)

// ST1 bits
const (
	st1EndOfCylinder = 0x80
	st1NoData        = 0x04
)

// ST3 bits
const (
	st3TwoSide   = 0x08
	st3TrackZero = 0x10
	st3Ready     = 0x20
)

const numDrives = 1

type drive struct {
	busy   bool
	track  uint8
	sector int
	disk   *dsk.Disk
}

// FDC is the floppy disk controller.
type FDC struct {
	drives [numDrives]drive
	phase  phase

	// accumulated command bytes. the opcode is command[0]
	command []uint8

	// sector data moving through the data register during the
	// execution phase. dataWrite selects the transfer direction and
	// writeHead/writeCHRN remember where a collected sector lands
	data        []uint8
	dataWrite   bool
	writeTarget int
	writeHead   uint8
	writeCHRN   [4]uint8

	// a format command collects id bytes rather than sector data
	formatting   bool
	formatSize   uint8
	formatGap    uint8
	formatFiller uint8

	result []uint8

	motorOn       bool
	selectedDrive int
	seekEnd       bool
	notReady      bool

	stepRateTime   uint8
	headUnloadTime uint8
	headLoadTime   uint8
	nonDMAMode     bool
}

// NewFDC is the preferred method of initialisation for the FDC type.
func NewFDC() *FDC {
	fdc := &FDC{}
	fdc.Reset()
	return fdc
}

// Reset the controller to its power-on state. mounted disks stay
// mounted.
func (fdc *FDC) Reset() {
	fdc.phase = phaseIdle
	fdc.command = fdc.command[:0]
	fdc.data = fdc.data[:0]
	fdc.dataWrite = false
	fdc.writeTarget = 0
	fdc.formatting = false
	fdc.result = fdc.result[:0]
	fdc.motorOn = false
	fdc.selectedDrive = 0
	fdc.seekEnd = false
	fdc.notReady = false
	for i := range fdc.drives {
		fdc.drives[i].busy = false
		fdc.drives[i].track = 0
		fdc.drives[i].sector = 0
	}
}

// LoadDisk mounts a parsed disk image in the numbered drive. the
// previous image, if any, is ejected.
func (fdc *FDC) LoadDisk(unit int, disk *dsk.Disk) {
	if unit < 0 || unit >= numDrives {
		logger.Logf("fdc", "no drive %d", unit)
		return
	}
	fdc.drives[unit].disk = disk
	fdc.drives[unit].track = 0
	fdc.drives[unit].sector = 0
}

// Disk returns the image mounted in the numbered drive, or nil.
func (fdc *FDC) Disk(unit int) *dsk.Disk {
	if unit < 0 || unit >= numDrives {
		return nil
	}
	return fdc.drives[unit].disk
}

// MotorOn returns the state of the shared drive motor.
func (fdc *FDC) MotorOn() bool {
	return fdc.motorOn
}

// PortRead distinguishes the main status register and the data
// register on the low bit of the port address. bit 8 low addresses
// the write-only motor port.
func (fdc *FDC) PortRead(port uint16) uint8 {
	if port&0x0100 == 0 {
		return 0xff
	}

	if port&0x01 == 0 {
		return fdc.mainStatus()
	}

	switch fdc.phase {
	case phaseExecution:
		if fdc.dataWrite || len(fdc.data) == 0 {
			return 0xff
		}
		v := fdc.data[0]
		fdc.data = fdc.data[1:]
		if len(fdc.data) == 0 {
			fdc.phase = phaseResult
		}
		return v

	case phaseResult:
		if len(fdc.result) == 0 {
			fdc.phase = phaseIdle
			return 0xff
		}
		v := fdc.result[0]
		fdc.result = fdc.result[1:]
		if len(fdc.result) == 0 {
			fdc.phase = phaseIdle
		}
		return v
	}

	logger.Logf("fdc", "data register read outside execution/result phase")
	return 0xff
}

// PortWrite distinguishes the motor port and the data register on bit
// 8 of the port address.
func (fdc *FDC) PortWrite(port uint16, data uint8) {
	if port&0x0100 == 0 {
		fdc.motorOn = data&0x01 == 0x01
		return
	}

	switch fdc.phase {
	case phaseIdle:
		fdc.command = append(fdc.command[:0], data)
		if parameterBytes(data) == 0 {
			fdc.execute()
		} else {
			fdc.phase = phaseCommand
		}

	case phaseCommand:
		fdc.command = append(fdc.command, data)
		if len(fdc.command) == parameterBytes(fdc.command[0])+1 {
			fdc.execute()
		}

	case phaseExecution:
		if !fdc.dataWrite {
			logger.Logf("fdc", "data register write during read transfer")
			return
		}
		fdc.data = append(fdc.data, data)
		if len(fdc.data) >= fdc.writeTarget {
			if fdc.formatting {
				fdc.completeFormat()
			} else {
				fdc.completeWrite()
			}
		}

	default:
		logger.Logf("fdc", "data register write during result phase")
	}
}

// parameterBytes returns the number of parameter bytes that follow a
// command opcode. unrecognised opcodes take no parameters and resolve
// immediately to the invalid command result.
func parameterBytes(opcode uint8) int {
	switch {
	case opcode&0x1f == cmdReadData:
		return 8
	case opcode&0x3f == cmdWriteData:
		return 8
	case opcode&0xbf == cmdReadID:
		return 1
	case opcode&0xbf == cmdFormatTrack:
		return 5
	case opcode == cmdRecalibrate:
		return 1
	case opcode == cmdSenseDriveStatus:
		return 1
	case opcode == cmdSpecify:
		return 2
	case opcode == cmdSeek:
		return 2
	}
	return 0
}

func (fdc *FDC) mainStatus() uint8 {
	v := uint8(statusRequestForMaster)

	if fdc.phase == phaseResult || (fdc.phase == phaseExecution && !fdc.dataWrite) {
		v |= statusDataDirection
	}
	if fdc.phase == phaseExecution {
		v |= statusExecutionMode
	}
	if fdc.phase != phaseIdle {
		v |= statusControllerBusy
	}
	for i := range fdc.drives {
		if fdc.drives[i].busy {
			v |= 1 << i
		}
	}

	return v
}

// execute runs the accumulated command. transfer commands leave the
// controller in the execution phase with the data register primed;
// everything else settles into the result phase or back to idle.
func (fdc *FDC) execute() {
	cmd := fdc.command
	fdc.result = fdc.result[:0]
	fdc.data = fdc.data[:0]
	fdc.dataWrite = false

	opcode := cmd[0]
	switch {
	case opcode&0x1f == cmdReadData:
		fdc.readData(cmd)
	case opcode&0x3f == cmdWriteData:
		fdc.writeData(cmd)
	case opcode&0xbf == cmdReadID:
		fdc.readID(cmd)
	case opcode&0xbf == cmdFormatTrack:
		fdc.formatTrack(cmd)
	case opcode == cmdRecalibrate:
		fdc.recalibrate(cmd)
	case opcode == cmdSenseInterruptStatus:
		fdc.senseInterruptStatus()
	case opcode == cmdSenseDriveStatus:
		fdc.senseDriveStatus(cmd)
	case opcode == cmdSpecify:
		fdc.specify(cmd)
	case opcode == cmdSeek:
		fdc.seek(cmd)
	default:
		logger.Logf("fdc", "invalid command %#04x", opcode)
		fdc.result = append(fdc.result, st0InvalidCommand)
		fdc.phase = phaseResult
	}

	fdc.command = fdc.command[:0]
}

// selectUnit latches the drive named in a command's unit select bits
// and returns it along with the mounted disk. a missing disk is
// reported with a nil disk, not an error.
func (fdc *FDC) selectUnit(unit uint8) (*drive, *dsk.Disk) {
	fdc.selectedDrive = int(unit & 0x03)
	if fdc.selectedDrive >= numDrives {
		return nil, nil
	}
	drv := &fdc.drives[fdc.selectedDrive]
	return drv, drv.disk
}

// notReadyResult ends a transfer command for which the addressed drive
// has no disk.
func (fdc *FDC) notReadyResult(chrn [4]uint8) {
	st0 := uint8(st0AbnormalTermination|st0NotReady) | uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, 0x00, 0x00, chrn[0], chrn[1], chrn[2], chrn[3])
	fdc.phase = phaseResult
}

// noDataResult ends a transfer command for which the addressed sector
// is not on the track under the head.
func (fdc *FDC) noDataResult(chrn [4]uint8) {
	st0 := uint8(st0AbnormalTermination) | uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, st1NoData, 0x00, chrn[0], chrn[1], chrn[2], chrn[3])
	fdc.phase = phaseResult
}

func (fdc *FDC) readData(cmd []uint8) {
	head := (cmd[1] >> 2) & 0x01
	chrn := [4]uint8{cmd[2], cmd[3], cmd[4], cmd[5]}
	endOfTrack := cmd[6]

	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReadyResult(chrn)
		return
	}

	trk := disk.Track(drv.track, head)
	if trk == nil {
		fdc.noDataResult(chrn)
		return
	}

	// transfer every sector from R to EOT inclusive
	var st1 uint8
	record := chrn[2]
	for {
		sec := trk.FindSector(record)
		if sec == nil {
			fdc.noDataResult([4]uint8{chrn[0], chrn[1], record, chrn[3]})
			return
		}
		fdc.data = append(fdc.data, sec.Data...)
		if record == endOfTrack {
			st1 |= st1EndOfCylinder
			break
		}
		record++
	}

	st0 := uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, st1, 0x00, chrn[0], chrn[1], record, chrn[3])

	logger.Logf("fdc", "read track %d sectors %#04x to %#04x (%d bytes)",
		drv.track, chrn[2], record, len(fdc.data))

	fdc.phase = phaseExecution
}

func (fdc *FDC) writeData(cmd []uint8) {
	head := (cmd[1] >> 2) & 0x01
	chrn := [4]uint8{cmd[2], cmd[3], cmd[4], cmd[5]}

	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReadyResult(chrn)
		return
	}

	trk := disk.Track(drv.track, head)
	if trk == nil || trk.FindSector(chrn[2]) == nil {
		fdc.noDataResult(chrn)
		return
	}

	// the execution phase now collects one sector of data. the target
	// is rediscovered in completeWrite
	// the 765 only distinguishes a three bit size field
	fdc.writeTarget = 0x80 << (chrn[3] & 0x07)
	fdc.data = make([]uint8, 0, fdc.writeTarget)
	fdc.dataWrite = true
	fdc.writeHead = head
	fdc.writeCHRN = chrn
	fdc.phase = phaseExecution
}

// completeWrite commits the sector collected during the execution
// phase of a write command and moves to the result phase.
func (fdc *FDC) completeWrite() {
	drv := &fdc.drives[fdc.selectedDrive]
	chrn := fdc.writeCHRN

	// the target was verified before the transfer started
	sec := drv.disk.Track(drv.track, fdc.writeHead).FindSector(chrn[2])
	copy(sec.Data, fdc.data)

	logger.Logf("fdc", "wrote track %d sector %#04x (%d bytes)",
		drv.track, chrn[2], len(fdc.data))

	fdc.data = fdc.data[:0]
	fdc.dataWrite = false

	st0 := uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, 0x00, 0x00, chrn[0], chrn[1], chrn[2], chrn[3])
	fdc.phase = phaseResult
}

// readID reports the address mark of the next sector under the head,
// cycling through the track so that repeated commands reveal every
// sector.
func (fdc *FDC) readID(cmd []uint8) {
	head := (cmd[1] >> 2) & 0x01

	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReadyResult([4]uint8{0, 0, 0, 0})
		return
	}

	trk := disk.Track(drv.track, head)
	if trk == nil || len(trk.Sectors) == 0 {
		fdc.noDataResult([4]uint8{0, 0, 0, 0})
		return
	}

	if drv.sector >= len(trk.Sectors) {
		drv.sector = 0
	}
	sec := &trk.Sectors[drv.sector]
	drv.sector = (drv.sector + 1) % len(trk.Sectors)

	st0 := uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, 0x00, 0x00,
		sec.Track, sec.Side, sec.ID, sec.Size)
	fdc.phase = phaseResult
}

// formatTrack rebuilds the track under the head. the execution phase
// collects four id bytes per sector; completeFormat does the rest.
func (fdc *FDC) formatTrack(cmd []uint8) {
	chrn := [4]uint8{0, 0, 0, cmd[2]}

	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReadyResult(chrn)
		return
	}
	if disk.Track(drv.track, (cmd[1]>>2)&0x01) == nil {
		fdc.noDataResult(chrn)
		return
	}

	fdc.writeHead = (cmd[1] >> 2) & 0x01
	fdc.writeCHRN = chrn
	fdc.formatSize = cmd[2]
	fdc.formatGap = cmd[4]
	fdc.formatFiller = cmd[5]

	if cmd[3] == 0 {
		// no sectors requested. the track empties without an
		// execution phase
		fdc.data = fdc.data[:0]
		fdc.formatting = true
		fdc.completeFormat()
		return
	}

	// four id bytes per sector
	fdc.writeTarget = 4 * int(cmd[3])
	fdc.data = make([]uint8, 0, fdc.writeTarget)
	fdc.dataWrite = true
	fdc.formatting = true
	fdc.phase = phaseExecution
}

// completeFormat rebuilds the track under the head from the id bytes
// collected during the execution phase of a format command.
func (fdc *FDC) completeFormat() {
	drv := &fdc.drives[fdc.selectedDrive]
	trk := drv.disk.Track(drv.track, fdc.writeHead)

	trk.SectorSize = fdc.formatSize
	trk.GapLength = fdc.formatGap
	trk.Filler = fdc.formatFiller
	trk.Sectors = trk.Sectors[:0]

	var last [4]uint8
	for i := 0; i+4 <= len(fdc.data); i += 4 {
		last = [4]uint8{fdc.data[i], fdc.data[i+1], fdc.data[i+2], fdc.data[i+3]}
		data := make([]uint8, 0x80<<(last[3]&0x07))
		for j := range data {
			data[j] = fdc.formatFiller
		}
		trk.Sectors = append(trk.Sectors, dsk.Sector{
			Track: last[0],
			Side:  last[1],
			ID:    last[2],
			Size:  last[3],
			Data:  data,
		})
	}

	logger.Logf("fdc", "formatted track %d with %d sectors", drv.track, len(trk.Sectors))

	fdc.data = fdc.data[:0]
	fdc.dataWrite = false
	fdc.formatting = false
	drv.sector = 0

	st0 := uint8(fdc.selectedDrive)
	fdc.result = append(fdc.result, st0, 0x00, 0x00,
		last[0], last[1], last[2], fdc.formatSize)
	fdc.phase = phaseResult
}

func (fdc *FDC) recalibrate(cmd []uint8) {
	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReady = true
	} else {
		drv.track = 0
		drv.sector = 0
		drv.busy = true
		fdc.seekEnd = true
	}
	fdc.phase = phaseIdle
}

func (fdc *FDC) seek(cmd []uint8) {
	drv, disk := fdc.selectUnit(cmd[1])
	if disk == nil {
		fdc.notReady = true
	} else {
		drv.track = cmd[2]
		drv.sector = 0
		drv.busy = true
		fdc.seekEnd = true
	}
	fdc.phase = phaseIdle
}

// senseInterruptStatus reports and clears the outcome of the last
// seek or recalibrate.
func (fdc *FDC) senseInterruptStatus() {
	var st0 uint8
	if fdc.seekEnd {
		st0 |= st0SeekEnd
	}
	if fdc.notReady {
		st0 |= st0AbnormalTermination | st0NotReady
	}
	st0 |= uint8(fdc.selectedDrive)

	var pcn uint8
	if fdc.selectedDrive < numDrives {
		pcn = fdc.drives[fdc.selectedDrive].track
		fdc.drives[fdc.selectedDrive].busy = false
	}

	fdc.seekEnd = false
	fdc.notReady = false

	fdc.result = append(fdc.result, st0, pcn)
	fdc.phase = phaseResult
}

func (fdc *FDC) senseDriveStatus(cmd []uint8) {
	drv, disk := fdc.selectUnit(cmd[1])

	st3 := uint8(fdc.selectedDrive)
	if drv != nil {
		if disk != nil {
			st3 |= st3Ready
			if disk.NumSides == 2 {
				st3 |= st3TwoSide
			}
		}
		if drv.track == 0 {
			st3 |= st3TrackZero
		}
	}

	fdc.result = append(fdc.result, st3)
	fdc.phase = phaseResult
}

func (fdc *FDC) specify(cmd []uint8) {
	fdc.stepRateTime = cmd[1] >> 4
	fdc.headUnloadTime = cmd[1] & 0x0f
	fdc.headLoadTime = cmd[2] >> 1
	fdc.nonDMAMode = cmd[2]&0x01 == 0x01
	fdc.phase = phaseIdle
}

// DriveState is the snapshotted position of one drive. the mounted
// image itself is not part of the snapshot.
type DriveState struct {
	Busy   bool  `json:"busy"`
	Track  uint8 `json:"track"`
	Sector int   `json:"sector"`
}

type State struct {
	Drives      [numDrives]DriveState `json:"drives"`
	Phase       int                   `json:"phase"`
	Command     []uint8               `json:"command"`
	Data        []uint8               `json:"data"`
	DataWrite   bool                  `json:"dataWrite"`
	WriteTarget int                   `json:"writeTarget"`
	WriteHead   uint8                 `json:"writeHead"`
	WriteCHRN   [4]uint8              `json:"writeCHRN"`
	Result      []uint8               `json:"result"`

	Formatting   bool  `json:"formatting"`
	FormatSize   uint8 `json:"formatSize"`
	FormatGap    uint8 `json:"formatGap"`
	FormatFiller uint8 `json:"formatFiller"`

	MotorOn       bool `json:"motorOn"`
	SelectedDrive int  `json:"selectedDrive"`
	SeekEnd       bool `json:"seekEnd"`
	NotReady      bool `json:"notReady"`
}

func (fdc *FDC) Snapshot() State {
	s := State{
		Phase:         int(fdc.phase),
		Command:       append([]uint8(nil), fdc.command...),
		Data:          append([]uint8(nil), fdc.data...),
		DataWrite:     fdc.dataWrite,
		WriteTarget:   fdc.writeTarget,
		WriteHead:     fdc.writeHead,
		WriteCHRN:     fdc.writeCHRN,
		Result:        append([]uint8(nil), fdc.result...),
		Formatting:    fdc.formatting,
		FormatSize:    fdc.formatSize,
		FormatGap:     fdc.formatGap,
		FormatFiller:  fdc.formatFiller,
		MotorOn:       fdc.motorOn,
		SelectedDrive: fdc.selectedDrive,
		SeekEnd:       fdc.seekEnd,
		NotReady:      fdc.notReady,
	}
	for i := range fdc.drives {
		s.Drives[i] = DriveState{
			Busy:   fdc.drives[i].busy,
			Track:  fdc.drives[i].track,
			Sector: fdc.drives[i].sector,
		}
	}
	return s
}

func (fdc *FDC) Restore(s State) {
	fdc.phase = phase(s.Phase)
	fdc.command = append(fdc.command[:0], s.Command...)
	fdc.data = append(fdc.data[:0], s.Data...)
	fdc.dataWrite = s.DataWrite
	fdc.writeTarget = s.WriteTarget
	fdc.writeHead = s.WriteHead
	fdc.writeCHRN = s.WriteCHRN
	fdc.result = append(fdc.result[:0], s.Result...)
	fdc.formatting = s.Formatting
	fdc.formatSize = s.FormatSize
	fdc.formatGap = s.FormatGap
	fdc.formatFiller = s.FormatFiller
	fdc.motorOn = s.MotorOn
	fdc.selectedDrive = s.SelectedDrive
	fdc.seekEnd = s.SeekEnd
	fdc.notReady = s.NotReady
	for i := range fdc.drives {
		fdc.drives[i].busy = s.Drives[i].Busy
		fdc.drives[i].track = s.Drives[i].Track
		fdc.drives[i].sector = s.Drives[i].Sector
	}
}

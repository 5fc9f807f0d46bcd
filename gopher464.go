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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/hathersage/gopher464/audio"
	"github.com/hathersage/gopher464/debugger"
	"github.com/hathersage/gopher464/disassembly"
	"github.com/hathersage/gopher464/hardware"
	"github.com/hathersage/gopher464/hardware/psg"
	"github.com/hathersage/gopher464/logger"
	"github.com/hathersage/gopher464/modalflag"
	"github.com/hathersage/gopher464/screen"
	"github.com/hathersage/gopher464/screen/sdlscreen"
	"github.com/hathersage/gopher464/wavwriter"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("RUN", "DEBUG", "DISASM")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Printf("* %v\n", err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RUN":
		err = run(md)
	case "DEBUG":
		err = debug(md)
	case "DISASM":
		err = disasm(md)
	}

	if err != nil {
		fmt.Printf("* %v\n", err)
		os.Exit(20)
	}
}

// romFlags adds the ROM image flags shared by the RUN and DEBUG modes.
type romFlags struct {
	lower *string
	basic *string
	dos   *string
}

func addROMFlags(md *modalflag.Modes) romFlags {
	return romFlags{
		lower: md.AddString("os", "", "lower (OS) ROM image"),
		basic: md.AddString("basic", "", "upper ROM image for slot 0 (BASIC)"),
		dos:   md.AddString("dos", "", "upper ROM image for slot 7 (AMSDOS)"),
	}
}

// newMachine creates a CPC and attaches the flagged ROM images and the
// trailing disk image argument, if any.
func newMachine(md *modalflag.Modes, roms romFlags) (*hardware.CPC, error) {
	mc := hardware.NewCPC()

	if *roms.lower != "" {
		data, err := os.ReadFile(*roms.lower)
		if err != nil {
			return nil, err
		}
		if err := mc.Mem.SetLowerROM(data); err != nil {
			return nil, err
		}
	}

	if *roms.basic != "" {
		data, err := os.ReadFile(*roms.basic)
		if err != nil {
			return nil, err
		}
		if err := mc.Mem.AttachUpperROM(0, data); err != nil {
			return nil, err
		}
	}

	if *roms.dos != "" {
		data, err := os.ReadFile(*roms.dos)
		if err != nil {
			return nil, err
		}
		if err := mc.Mem.AttachUpperROM(7, data); err != nil {
			return nil, err
		}
	}

	if len(md.RemainingArgs()) > 0 {
		name := md.GetArg(0)
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := mc.LoadDisk(0, data, name); err != nil {
			return nil, err
		}
	}

	return mc, nil
}

// sampleTee fans the PSG sample stream out to more than one sink.
type sampleTee []psg.SampleSink

func (tee sampleTee) AddSample(sample float32) {
	for _, sink := range tee {
		sink.AddSample(sample)
	}
}

func run(md *modalflag.Modes) error {
	md.NewMode()

	roms := addROMFlags(md)
	scale := md.AddFloat64("scale", 2.0, "window scaling")
	wav := md.AddString("wav", "", "record audio to wav file")
	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}

	mc, err := newMachine(md, roms)
	if err != nil {
		return err
	}

	// display
	sdl, err := sdlscreen.NewSdlScreen(float32(*scale))
	if err != nil {
		return err
	}
	defer sdl.Destroy()

	scr := screen.NewScreen()
	scr.AddRenderer(sdl)
	mc.AttachScreen(scr)

	sdl.PressKey = func(key string) {
		if err := mc.PressKey(key); err != nil {
			logger.Logf("run", "%v", err)
		}
	}
	sdl.ReleaseKey = func(key string) {
		_ = mc.ReleaseKey(key)
	}

	// sound
	queue := audio.NewQueue(0)
	player, err := audio.NewPlayer(queue)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Play()

	if *wav != "" {
		aw, err := wavwriter.New(*wav)
		if err != nil {
			return err
		}
		defer func() {
			if err := aw.End(); err != nil {
				fmt.Printf("* %v\n", err)
			}
		}()
		mc.AttachAudio(sampleTee{queue, aw})
	} else {
		mc.AttachAudio(queue)
	}

	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	// one tick of the wall clock per 50Hz field. the emulation
	// overshoots each field by a fraction of an instruction; the
	// overshoot carries into the next field's budget
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	overshoot := 0
	for !sdl.Quit() {
		select {
		case <-intChan:
			return nil
		case <-tick.C:
		}

		overshoot = mc.Advance(hardware.FrameUnits - overshoot)
		sdl.Service()
	}

	return nil
}

func debug(md *modalflag.Modes) error {
	md.NewMode()

	roms := addROMFlags(md)
	log := md.AddBool("log", false, "echo debugging log to stdout")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(os.Stdout)
	} else {
		logger.SetEcho(nil)
	}

	mc, err := newMachine(md, roms)
	if err != nil {
		return err
	}

	return debugger.NewDebugger(mc, os.Stdin, os.Stdout).Start()
}

// fileMemory presents a file image to the decoder at a load address.
// Reads outside the image return 0.
type fileMemory struct {
	origin uint16
	data   []uint8
}

func (m fileMemory) Read(address uint16) uint8 {
	idx := int(address) - int(m.origin)
	if idx < 0 || idx >= len(m.data) {
		return 0
	}
	return m.data[idx]
}

func disasm(md *modalflag.Modes) error {
	md.NewMode()

	origin := md.AddInt("origin", 0x0000, "load address of the binary")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) != 1 {
		return fmt.Errorf("disasm mode requires a single binary file")
	}

	data, err := os.ReadFile(md.GetArg(0))
	if err != nil {
		return err
	}

	mem := fileMemory{origin: uint16(*origin), data: data}

	address := mem.origin
	for int(address)-int(mem.origin) < len(data) {
		dsm := disassembly.FromMemory(mem, address, 1)
		if len(dsm.Entries) == 0 {
			break
		}
		fmt.Println(dsm.Entries[0].String())
		address += uint16(len(dsm.Entries[0].Bytes))
	}

	return nil
}
//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/midiroute/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	CALLBACK_NULL     = 0x00000000 // No callback
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const (
	midiErrStillPlaying = 65
	maxPnameLen         = 32
	sysExInputBuffers   = 4
)

var (
	ErrDeviceCaps   = errors.New("failed to read MIDI device capabilities")
	ErrWinMMCall    = errors.New("winmm call failed")
	ErrHandleClosed = errors.New("MIDI port handle is closed")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [maxPnameLen]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [maxPnameLen]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors MIDIHDR for long (SysEx) messages in both directions.
type midiHdr struct {
	lpData          *byte
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                    = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs     = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps     = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen           = winmm.NewProc("midiInOpen")
	procMidiInStart          = winmm.NewProc("midiInStart")
	procMidiInStop           = winmm.NewProc("midiInStop")
	procMidiInReset          = winmm.NewProc("midiInReset")
	procMidiInClose          = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader  = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHdr   = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer      = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs    = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps    = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen          = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg      = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg       = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHdr  = winmm.NewProc("midiOutUnprepareHeader")
	procMidiOutClose         = winmm.NewProc("midiOutClose")
)

// A single callback trampoline serves every input port: windows.NewCallback
// slots are never released.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
	listeners    sync.Map // uintptr id -> *input
	nextID       atomic.Uintptr
)

func inputCallback() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})
	return callbackPtr
}

// Transport implements contracts.Transport with the WinMM API.
type Transport struct {
	logger contracts.Logger
}

// NewTransport creates a WinMM transport.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("WinMM MIDI transport created for Windows")
	return &Transport{logger: options.Logger}, nil
}

func (t *Transport) PortCount(dir contracts.Direction) (int, error) {
	if dir == contracts.Input {
		r0, _, _ := procMidiInGetNumDevs.Call()
		return int(uint32(r0)), nil
	}
	r0, _, _ := procMidiOutGetNumDevs.Call()
	return int(uint32(r0)), nil
}

func (t *Transport) PortName(dir contracts.Direction, index int) (string, error) {
	if dir == contracts.Input {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(index), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			return "", fmt.Errorf("%w: input %d (MMRESULT %d)", ErrDeviceCaps, index, r1)
		}
		return windows.UTF16ToString(caps.szPname[:]), nil
	}
	var caps midiOutCaps
	r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(index), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != 0 {
		return "", fmt.Errorf("%w: output %d (MMRESULT %d)", ErrDeviceCaps, index, r1)
	}
	return windows.UTF16ToString(caps.szPname[:]), nil
}

func (t *Transport) OpenInput(index int) (contracts.InputHandle, error) {
	in := &input{logger: t.logger, id: nextID.Add(1)}
	listeners.Store(in.id, in)

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&in.handle)),
		uintptr(index),
		inputCallback(),
		in.id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		listeners.Delete(in.id)
		return nil, fmt.Errorf("%w: midiInOpen %d (MMRESULT %d): %v", ErrWinMMCall, index, r1, err)
	}
	return in, nil
}

func (t *Transport) OpenOutput(index int) (contracts.OutputHandle, error) {
	out := &output{}
	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&out.handle)),
		uintptr(index),
		0,
		0,
		uintptr(CALLBACK_NULL),
	)
	if r1 != 0 {
		return nil, fmt.Errorf("%w: midiOutOpen %d (MMRESULT %d): %v", ErrWinMMCall, index, r1, err)
	}
	return out, nil
}

func (t *Transport) Close() error {
	return nil
}

// sysExBuffer is one MIDIHDR queued with midiInAddBuffer. The driver fills
// it with SysEx bytes and hands it back in MIM_LONGDATA; a message longer
// than the buffer arrives in several chunks.
type sysExBuffer struct {
	hdr  midiHdr
	data []byte
}

type input struct {
	logger contracts.Logger
	id     uintptr
	handle HMIDIIN

	mu      sync.Mutex
	started bool
	closed  bool
	closing atomic.Bool
	deliver atomic.Pointer[func([]byte)]
	cfg     contracts.ListenConfig
	sysEx   []*sysExBuffer
}

func (in *input) Listen(fn func(msg []byte), cfg contracts.ListenConfig) (func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrHandleClosed
	}

	in.cfg = cfg
	if !cfg.IgnoreSysEx && in.sysEx == nil {
		if err := in.queueSysExBuffers(cfg.SysExBuffer()); err != nil {
			return nil, err
		}
	}
	in.deliver.Store(&fn)
	r1, _, err := procMidiInStart.Call(uintptr(in.handle))
	if r1 != 0 {
		in.deliver.Store(nil)
		return nil, fmt.Errorf("%w: midiInStart (MMRESULT %d): %v", ErrWinMMCall, r1, err)
	}
	in.started = true

	return func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		in.stop()
	}, nil
}

func (in *input) stop() {
	in.deliver.Store(nil)
	if in.started {
		if r1, _, err := procMidiInStop.Call(uintptr(in.handle)); r1 != 0 {
			in.logger.Error("Failed to stop MIDI capture", in.logger.Field().Error("error", err))
		}
		in.started = false
	}
}

// queueSysExBuffers prepares and queues the SysEx input buffers. Buffers
// prepared before a failure are released by Close.
func (in *input) queueSysExBuffers(size uint32) error {
	hdrSize := unsafe.Sizeof(midiHdr{})
	for i := 0; i < sysExInputBuffers; i++ {
		buf := &sysExBuffer{data: make([]byte, size)}
		buf.hdr.lpData = &buf.data[0]
		buf.hdr.dwBufferLength = size

		if r1, _, err := procMidiInPrepareHeader.Call(uintptr(in.handle), uintptr(unsafe.Pointer(&buf.hdr)), hdrSize); r1 != 0 {
			return fmt.Errorf("%w: midiInPrepareHeader (MMRESULT %d): %v", ErrWinMMCall, r1, err)
		}
		in.sysEx = append(in.sysEx, buf)
		if r1, _, err := procMidiInAddBuffer.Call(uintptr(in.handle), uintptr(unsafe.Pointer(&buf.hdr)), hdrSize); r1 != 0 {
			return fmt.Errorf("%w: midiInAddBuffer (MMRESULT %d): %v", ErrWinMMCall, r1, err)
		}
	}
	return nil
}

// releaseSysExBuffers resets the port, which returns every queued buffer
// through MIM_LONGDATA, then unprepares the buffers.
func (in *input) releaseSysExBuffers() {
	procMidiInReset.Call(uintptr(in.handle))
	hdrSize := unsafe.Sizeof(midiHdr{})
	for _, buf := range in.sysEx {
		if r1, _, err := procMidiInUnprepareHdr.Call(uintptr(in.handle), uintptr(unsafe.Pointer(&buf.hdr)), hdrSize); r1 != 0 {
			in.logger.Warn("Failed to unprepare SysEx buffer", in.logger.Field().Error("error", err))
		}
	}
}

// sysExDone handles a buffer returned by the driver: its bytes are delivered
// and it is queued again unless the port is closing.
func (in *input) sysExDone(hdrPtr uintptr, deliver bool) {
	var buf *sysExBuffer
	for _, b := range in.sysEx {
		if uintptr(unsafe.Pointer(&b.hdr)) == hdrPtr {
			buf = b
			break
		}
	}
	if buf == nil {
		return
	}

	if n := buf.hdr.dwBytesRecorded; deliver && n > 0 {
		if fn := in.deliver.Load(); fn != nil {
			(*fn)(append([]byte(nil), buf.data[:n]...))
		}
	}
	if in.closing.Load() {
		return
	}
	buf.hdr.dwBytesRecorded = 0
	if r1, _, err := procMidiInAddBuffer.Call(uintptr(in.handle), hdrPtr, unsafe.Sizeof(buf.hdr)); r1 != 0 {
		in.logger.Error("Failed to queue SysEx buffer again", in.logger.Field().Error("error", err))
	}
}

func (in *input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closing.Store(true)
	in.stop()
	if in.sysEx != nil {
		in.releaseSysExBuffers()
	} else {
		procMidiInReset.Call(uintptr(in.handle))
	}
	r1, _, err := procMidiInClose.Call(uintptr(in.handle))
	in.closed = true
	listeners.Delete(in.id)
	if r1 != 0 {
		return fmt.Errorf("%w: midiInClose (MMRESULT %d): %v", ErrWinMMCall, r1, err)
	}
	return nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	v, ok := listeners.Load(dwInstance)
	if !ok {
		return 0
	}
	in := v.(*input)

	switch wMsg {
	case MIM_OPEN:
		in.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		in.logger.Debug("MIDI device closed")
	case MIM_DATA:
		fn := in.deliver.Load()
		if fn == nil {
			return 0
		}
		msg := unpackShortMessage(uint32(dwParam1))
		if len(msg) == 0 || !in.cfg.Allows(msg) {
			return 0
		}
		(*fn)(msg)
	case MIM_LONGDATA:
		in.sysExDone(dwParam1, true)
	case MIM_LONGERROR:
		in.logger.Error("Invalid SysEx message received; buffer discarded")
		in.sysExDone(dwParam1, false)
	case MIM_ERROR:
		in.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		in.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		in.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

type output struct {
	mu     sync.Mutex
	handle HMIDIOUT
	closed bool
}

func (out *output) Send(msg []byte) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closed {
		return ErrHandleClosed
	}

	if packed, ok := packShortMessage(msg); ok {
		r1, _, err := procMidiOutShortMsg.Call(uintptr(out.handle), uintptr(packed))
		if r1 != 0 {
			return fmt.Errorf("%w: midiOutShortMsg (MMRESULT %d): %v", ErrWinMMCall, r1, err)
		}
		return nil
	}
	return out.sendLong(msg)
}

func (out *output) sendLong(msg []byte) error {
	if len(msg) == 0 {
		return nil
	}
	buf := append([]byte(nil), msg...)
	hdr := midiHdr{lpData: &buf[0], dwBufferLength: uint32(len(buf))}
	size := unsafe.Sizeof(hdr)

	if r1, _, err := procMidiOutPrepareHeader.Call(uintptr(out.handle), uintptr(unsafe.Pointer(&hdr)), size); r1 != 0 {
		return fmt.Errorf("%w: midiOutPrepareHeader (MMRESULT %d): %v", ErrWinMMCall, r1, err)
	}
	r1, _, err := procMidiOutLongMsg.Call(uintptr(out.handle), uintptr(unsafe.Pointer(&hdr)), size)
	if r1 != 0 {
		procMidiOutUnprepareHdr.Call(uintptr(out.handle), uintptr(unsafe.Pointer(&hdr)), size)
		return fmt.Errorf("%w: midiOutLongMsg (MMRESULT %d): %v", ErrWinMMCall, r1, err)
	}
	for {
		r1, _, _ := procMidiOutUnprepareHdr.Call(uintptr(out.handle), uintptr(unsafe.Pointer(&hdr)), size)
		if r1 != midiErrStillPlaying {
			break
		}
		time.Sleep(time.Millisecond)
	}
	runtime.KeepAlive(buf)
	return nil
}

func (out *output) Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closed {
		return nil
	}
	out.closed = true
	r1, _, err := procMidiOutClose.Call(uintptr(out.handle))
	if r1 != 0 {
		return fmt.Errorf("%w: midiOutClose (MMRESULT %d): %v", ErrWinMMCall, r1, err)
	}
	return nil
}

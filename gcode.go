package main

import (
	"fmt"
	"strconv"
)

// Point is a position in machine coordinates (mm).
type Point struct {
	X, Y, Z float64
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Mode is the positioning mode of an Emitter.
type Mode int

const (
	ModeUnset Mode = iota
	ModeAbsolute
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeAbsolute:
		return "absolute"
	case ModeIncremental:
		return "incremental"
	default:
		return "unset"
	}
}

// Stream selects one of the per-level output streams. Streams are written
// to the output in ascending order.
type Stream int

const (
	Level0 Stream = iota
	Level1
	Level2
	NumStreams
)

func (s Stream) String() string {
	return "level" + strconv.Itoa(int(s))
}

// Intensity indexes ToolConfig.BurnDurations.
type Intensity int

const (
	IntensityLow Intensity = iota
	IntensityMedium
	IntensityHigh
	NumIntensities
)

// Emitter formats G-code into one Buffer per Stream. It keeps the
// positioning mode and the current machine position.
type Emitter struct {
	tool    ToolConfig
	mode    Mode
	pos     Point
	streams [NumStreams]*Buffer
}

// NewEmitter returns an emitter in ModeUnset, positioned at the tool's
// origin at engagement height.
func NewEmitter(tool ToolConfig) *Emitter {
	e := &Emitter{
		tool: tool,
		pos:  Point{X: tool.Offset, Y: tool.Offset, Z: tool.Depth},
	}
	for i := range e.streams {
		e.streams[i] = NewBuffer()
	}
	return e
}

func (e *Emitter) Mode() Mode      { return e.mode }
func (e *Emitter) Position() Point { return e.pos }

// Stream borrows the buffer of stream s. It is owned by the emitter.
func (e *Emitter) Stream(s Stream) *Buffer {
	return e.streams[s]
}

// emit writes one line: the command keyword followed by letter/value
// pairs.
func (e *Emitter) emit(s Stream, command string, params ...string) error {
	if s < 0 || s >= NumStreams {
		return fmt.Errorf("invalid stream %d", s)
	}
	line := NewBuffer()
	defer line.Destroy()
	if err := line.AppendString(command); err != nil {
		return err
	}
	for i := 0; i+1 < len(params); i += 2 {
		if err := line.AppendString(" " + params[i] + params[i+1]); err != nil {
			return err
		}
	}
	if err := line.AppendString("\n"); err != nil {
		return err
	}
	return e.streams[s].AppendBuffer(line)
}

func (e *Emitter) SetAbsoluteMode() error {
	e.mode = ModeAbsolute
	return e.emit(Level0, "G90")
}

func (e *Emitter) SetIncrementalMode() error {
	e.mode = ModeIncremental
	return e.emit(Level0, "G91")
}

// ToggleMode selects absolute mode on a fresh emitter and flips the mode
// otherwise.
func (e *Emitter) ToggleMode() error {
	if e.mode == ModeAbsolute {
		return e.SetIncrementalMode()
	}
	return e.SetAbsoluteMode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Move emits a G0 (rapid) or G1 move to to. In incremental mode the
// emitted coordinates are relative to from.
func (e *Emitter) Move(rapid bool, from, to Point, feed float64, s Stream) error {
	p := to
	if e.mode != ModeAbsolute {
		p = to.Sub(from)
	}
	cmd := "G1"
	if rapid {
		cmd = "G0"
	}
	return e.emit(s, cmd,
		"X", formatCoord(p.X),
		"Y", formatCoord(p.Y),
		"Z", formatCoord(p.Z),
		"F", strconv.FormatFloat(feed, 'f', 0, 64),
	)
}

// Dwell pauses for the given number of seconds.
func (e *Emitter) Dwell(seconds float64, s Stream) error {
	return e.emit(s, "G4", "P", formatCoord(seconds))
}

// MoveAndBurn travels to to, plunges by the engagement depth, dwells for
// the intensity's burn duration and retracts.
func (e *Emitter) MoveAndBurn(from, to Point, intensity Intensity, s Stream) error {
	if intensity < 0 || int(intensity) >= len(e.tool.BurnDurations) {
		return fmt.Errorf("invalid intensity %d", intensity)
	}
	feed := e.tool.TravelFeed
	if err := e.Move(false, from, to, feed, s); err != nil {
		return err
	}
	from = to
	to.Z -= e.tool.Depth
	if err := e.Move(false, from, to, feed, s); err != nil {
		return err
	}
	if err := e.Dwell(e.tool.BurnDurations[intensity], s); err != nil {
		return err
	}
	from = to
	to.Z += e.tool.Depth
	return e.Move(false, from, to, feed, s)
}

// Burn runs MoveAndBurn from the current position and makes to the new
// current position.
func (e *Emitter) Burn(to Point, intensity Intensity, s Stream) error {
	if err := e.MoveAndBurn(e.pos, to, intensity, s); err != nil {
		return err
	}
	e.pos = to
	return nil
}

// Finalize concatenates the streams in order into a new byte slice.
func (e *Emitter) Finalize() ([]byte, error) {
	out := NewBuffer()
	defer out.Destroy()
	for _, b := range e.streams {
		if err := out.AppendBuffer(b); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// Destroy releases the stream buffers.
func (e *Emitter) Destroy() {
	for _, b := range e.streams {
		b.Destroy()
	}
}

// Package report renders calibration results as line-oriented ASCII for a
// serial console: fields are delimited by ';' and lines end in CRLF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/fifocal/calib"
)

// Delimiter separates fields and grid cells.
const Delimiter = ";"

// LineEnd terminates every line.
const LineEnd = "\r\n"

// Cell codes for non-numeric grid cells.
const (
	CellUnswept    = "0"
	CellUnstable   = "X"
	CellStableIdle = "S"
)

// Render returns the matrix as a grid: a header line with the threshold
// values, then one line per depth with one cell per threshold column.
// Unswept cells, including every cell with threshold > depth, render as "0";
// stable-under-stress cells render their duration in ticks.
func Render(m *calib.Matrix) string {
	var b strings.Builder

	thresholds := m.Thresholds()
	header := make([]string, len(thresholds))
	for i, t := range thresholds {
		header[i] = strconv.FormatUint(uint64(t), 10)
	}
	b.WriteString(strings.Join(header, Delimiter))
	b.WriteString(LineEnd)

	row := make([]string, m.Cols())
	for r := 0; r < m.Rows(); r++ {
		for c := range row {
			row[c] = CellText(m.At(r, c))
		}
		b.WriteString(strings.Join(row, Delimiter))
		b.WriteString(LineEnd)
	}

	return b.String()
}

// CellText returns the grid encoding of one verdict.
func CellText(v calib.Verdict) string {
	switch v.Class() {
	case calib.ClassUnstable:
		return CellUnstable
	case calib.ClassStableIdle:
		return CellStableIdle
	case calib.ClassStableUnderStress:
		return strconv.FormatUint(v.Duration, 10)
	default:
		return CellUnswept
	}
}

// Pad formats n as a ten digit, zero padded decimal, keeping the low ten
// digits of larger values.
func Pad(n uint64) string {
	return fmt.Sprintf("%010d", n%10000000000)
}

// Writer streams a calibration run to a character sink.
type Writer struct {
	w         io.Writer
	timerFreq uint64
	err       error
}

// NewWriter creates a Writer. timerFreq is the timer rate in ticks per
// second used to convert stress durations to milliseconds; zero reports raw
// ticks instead.
func NewWriter(w io.Writer, timerFreq uint64) *Writer {
	return &Writer{w: w, timerFreq: timerFreq}
}

// Err returns the first write error encountered, if any.
func (w *Writer) Err() error {
	return w.err
}

// Line writes fields joined by the delimiter and terminated by CRLF.
func (w *Writer) Line(fields ...string) {
	w.write(strings.Join(fields, Delimiter) + LineEnd)
}

// Cell writes the status line of one classified configuration.
func (w *Writer) Cell(c calib.Cell) {
	w.write(StatusLine(c, w.timerFreq))
}

// Matrix writes the rendered grid.
func (w *Writer) Matrix(m *calib.Matrix) {
	w.write(Render(m))
}

// Done writes the end-of-run marker.
func (w *Writer) Done() {
	w.write("done" + LineEnd)
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, s); err != nil {
		w.err = fmt.Errorf("failed to write report: %w", err)
	}
}

// StatusLine formats one classified configuration, e.g.
//
//	Depth = 0000000004; Threshold = 0000000002; Refill = 0000000003; failed immediately
func StatusLine(c calib.Cell, timerFreq uint64) string {
	fields := []string{
		"Depth = " + Pad(uint64(c.Config.Depth)),
		" Threshold = " + Pad(uint64(c.Config.Threshold)),
		" Refill = " + Pad(uint64(c.Config.RefillAmount())),
		" " + c.Verdict.Outcome.String(),
	}

	if c.Verdict.Outcome == calib.StableUnderStress {
		if timerFreq == 0 {
			fields = append(fields, " Time (ticks) = "+Pad(c.Verdict.Duration))
		} else {
			fields = append(fields, " Time (ms) = "+Pad(Millis(c.Verdict.Duration, timerFreq)))
		}
	}

	return strings.Join(fields, Delimiter) + LineEnd
}

// Millis converts timer ticks to milliseconds.
func Millis(ticks, timerFreq uint64) uint64 {
	return ticks/timerFreq*1000 + ticks%timerFreq*1000/timerFreq
}

package overlay

import (
	"strconv"
	"strings"
)

// InputKind classifies decoded terminal input.
type InputKind int

const (
	// InputActivity is any key or pointer input that means the user is back.
	InputActivity InputKind = iota
	// InputMenuGesture is a right click or an Alt-modified key.
	InputMenuGesture
	// InputMenuSelect picks the numbered menu entry in Input.Index.
	InputMenuSelect
	// InputMenuClose dismisses an open menu.
	InputMenuClose
)

// Input is one decoded user gesture.
type Input struct {
	Kind InputKind
	// Index is the 1-based menu entry for InputMenuSelect.
	Index int
}

const (
	esc = 0x1b
	// maxPending bounds an unterminated escape sequence kept across reads.
	maxPending = 32
)

// InputDecoder turns raw terminal bytes into gestures. Mouse reports use the
// SGR encoding (ESC [ < b ; x ; y M|m).
type InputDecoder struct {
	// Buffer for sequences split across reads
	pending []byte
}

// NewInputDecoder creates a decoder.
func NewInputDecoder() *InputDecoder {
	return &InputDecoder{pending: make([]byte, 0, maxPending)}
}

// Reset drops any partial sequence.
func (d *InputDecoder) Reset() {
	d.pending = d.pending[:0]
}

// Decode classifies data. menuOpen enables digit selection and Esc to
// close; the menu is treated as closed after a selection or close within
// the same batch. Consecutive activity is collapsed into one Input.
func (d *InputDecoder) Decode(data []byte, menuOpen bool) []Input {
	buf := make([]byte, 0, len(d.pending)+len(data))
	buf = append(buf, d.pending...)
	buf = append(buf, data...)
	d.pending = d.pending[:0]

	var out []Input
	emit := func(in Input) {
		if in.Kind == InputActivity && len(out) > 0 && out[len(out)-1].Kind == InputActivity {
			return
		}
		out = append(out, in)
		if in.Kind == InputMenuSelect || in.Kind == InputMenuClose {
			menuOpen = false
		}
	}

	for i := 0; i < len(buf); {
		b := buf[i]

		if b != esc {
			if menuOpen && b >= '1' && b <= '9' {
				emit(Input{Kind: InputMenuSelect, Index: int(b - '0')})
			} else {
				emit(Input{Kind: InputActivity})
			}
			i++
			continue
		}

		// A lone ESC at the end of a read is the Escape key.
		if i+1 >= len(buf) {
			emit(escapeKey(menuOpen))
			i++
			continue
		}

		switch next := buf[i+1]; {
		case next == '[':
			end := csiEnd(buf, i+2)
			if end < 0 {
				if len(buf)-i <= maxPending {
					d.pending = append(d.pending, buf[i:]...)
				} else {
					emit(Input{Kind: InputActivity})
				}
				return out
			}
			if in, ok := classifyCSI(buf[i+2 : end+1]); ok {
				emit(in)
			}
			i = end + 1
		case next == 'O':
			// SS3 function and cursor keys: ESC O <final>. Like a lone ESC,
			// a trailing ESC O is read as the key itself, Alt+O.
			if i+2 >= len(buf) {
				emit(Input{Kind: InputMenuGesture})
				return out
			}
			emit(Input{Kind: InputActivity})
			i += 3
		case next == esc:
			emit(escapeKey(menuOpen))
			i++
		case next >= 0x20 && next < 0x7f:
			// Terminals deliver Alt+key as ESC followed by the key.
			emit(Input{Kind: InputMenuGesture})
			i += 2
		default:
			emit(Input{Kind: InputActivity})
			i += 2
		}
	}

	return out
}

func escapeKey(menuOpen bool) Input {
	if menuOpen {
		return Input{Kind: InputMenuClose}
	}
	return Input{Kind: InputActivity}
}

// csiEnd returns the index of the final byte of a CSI sequence whose
// parameters begin at start, or -1 when the sequence is incomplete.
func csiEnd(buf []byte, start int) int {
	for j := start; j < len(buf); j++ {
		if buf[j] >= 0x40 && buf[j] <= 0x7e {
			return j
		}
	}
	return -1
}

// classifyCSI handles the body of a CSI sequence (after ESC [). ok is false
// for input that should be ignored, such as button releases.
func classifyCSI(body []byte) (Input, bool) {
	if len(body) == 0 || body[0] != '<' {
		return Input{Kind: InputActivity}, true
	}

	final := body[len(body)-1]
	if final == 'm' {
		return Input{}, false
	}

	fields := strings.Split(string(body[1:len(body)-1]), ";")
	button, err := strconv.Atoi(fields[0])
	if err != nil {
		return Input{Kind: InputActivity}, true
	}

	const (
		motionBit   = 32
		wheelBit    = 64
		buttonMask  = 3
		rightButton = 2
	)
	if final == 'M' && button&motionBit == 0 && button&wheelBit == 0 && button&buttonMask == rightButton {
		return Input{Kind: InputMenuGesture}, true
	}
	return Input{Kind: InputActivity}, true
}

// Package inputthread runs a dedicated stdin-reading goroutine so the main
// render loop never blocks waiting on a keypress, and decodes raw terminal
// bytes (the tty must already be in raw mode, via golang.org/x/term) into
// discrete key events.
package inputthread

import (
	"bufio"
	"io"
)

// Key identifies a single decoded keypress.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEsc
	KeyTab
	KeyChar // Rune holds the actual character
)

// Event is one decoded keypress, or a ReadErr terminating the stream.
type Event struct {
	Key     Key
	Rune    rune
	ReadErr error
}

// Reader owns the background goroutine and the channel it publishes
// decoded events to. The channel is sized generously (not literally
// unbounded) on the assumption that key events arrive far slower than the
// render loop drains them; a full channel would only ever indicate the
// consumer has stopped reading entirely.
type Reader struct {
	events chan Event
	stop   chan struct{}
}

const eventQueueSize = 256

// Start begins reading r (normally os.Stdin, already put in raw mode) on a
// background goroutine and returns immediately.
func Start(r io.Reader) *Reader {
	reader := &Reader{
		events: make(chan Event, eventQueueSize),
		stop:   make(chan struct{}),
	}
	go reader.run(bufio.NewReader(r))
	return reader
}

// Events returns the channel new key events arrive on.
func (r *Reader) Events() <-chan Event { return r.events }

// Stop signals the reader goroutine to exit after its next read unblocks.
// Since the underlying read is a blocking stdin read, Stop does not force
// an immediate exit; it just tells the goroutine not to publish further
// events once it returns from whatever read is in flight.
func (r *Reader) Stop() { close(r.stop) }

func (r *Reader) run(br *bufio.Reader) {
	for {
		ev, err := decodeOne(br)
		select {
		case <-r.stop:
			return
		default:
		}
		if err != nil {
			r.publish(Event{ReadErr: err})
			return
		}
		r.publish(ev)
	}
}

func (r *Reader) publish(ev Event) {
	select {
	case r.events <- ev:
	case <-r.stop:
	}
}

// decodeOne reads and decodes a single key event, including the 3-byte
// CSI arrow-key escape sequences (ESC '[' 'A'..'D').
func decodeOne(br *bufio.Reader) (Event, error) {
	b, err := br.ReadByte()
	if err != nil {
		return Event{}, err
	}

	const esc = 0x1b
	if b != esc {
		return decodeRune(b, br)
	}

	next, err := br.Peek(1)
	if err != nil || len(next) == 0 || next[0] != '[' {
		return Event{Key: KeyEsc}, nil
	}
	br.ReadByte() // consume '['

	dir, err := br.ReadByte()
	if err != nil {
		return Event{}, err
	}
	switch dir {
	case 'A':
		return Event{Key: KeyUp}, nil
	case 'B':
		return Event{Key: KeyDown}, nil
	case 'C':
		return Event{Key: KeyRight}, nil
	case 'D':
		return Event{Key: KeyLeft}, nil
	default:
		return Event{Key: KeyNone}, nil
	}
}

func decodeRune(b byte, br *bufio.Reader) (Event, error) {
	switch b {
	case '\t':
		return Event{Key: KeyTab}, nil
	}
	if b < 0x80 {
		return Event{Key: KeyChar, Rune: rune(b)}, nil
	}

	// Multi-byte UTF-8 lead byte: unread and decode the full rune. Not
	// exercised by the ASCII-only key bindings this application defines,
	// but keeps the decoder from corrupting a following ASCII byte.
	br.UnreadByte()
	r, _, err := br.ReadRune()
	if err != nil {
		return Event{}, err
	}
	return Event{Key: KeyChar, Rune: r}, nil
}

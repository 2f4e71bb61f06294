package comms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Envelope is the unit exchanged in both directions.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Type is the event tag.
func (e Envelope) Type() string {
	return e.Event
}

// Encode wraps data up as an envelope.
func Encode(event string, data interface{}) (Envelope, error) {
	if data == nil {
		data = struct{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unwraps the data of an envelope into out.
func Decode(e Envelope, out interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("decode %s: no data", e.Event)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", e.Event, err)
	}
	return nil
}

// Marshal makes the wire form of an envelope.
func Marshal(e Envelope) ([]byte, error) {
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("{}")
	}
	return json.Marshal(e)
}

// BadMessageError is a frame that arrived whole but is not an envelope. The
// stream it came from is still usable.
type BadMessageError struct {
	Raw string
	Err error
}

func (e *BadMessageError) Error() string {
	return fmt.Sprintf("bad message %q: %v", e.Raw, e.Err)
}

func (e *BadMessageError) Unwrap() error { return e.Err }

// Unmarshal reads the wire form of an envelope.
func Unmarshal(raw []byte) (Envelope, error) {
	e := Envelope{}
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, &BadMessageError{clip(raw), err}
	}
	if e.Event == "" {
		return Envelope{}, &BadMessageError{clip(raw), errors.New("no event")}
	}
	return e, nil
}

func clip(raw []byte) string {
	if len(raw) > 64 {
		return string(raw[:64]) + "..."
	}
	return string(raw)
}

// Encoder writes envelopes to a stream, one JSON document per line.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode is Encode and Send in one.
func (e *Encoder) Encode(event string, data interface{}) error {
	env, err := Encode(event, data)
	if err != nil {
		return err
	}
	return e.Send(env)
}

func (e *Encoder) Send(env Envelope) error {
	line, err := Marshal(env)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = e.w.Write(line)
	return err
}

// Decoder reads what an Encoder writes.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode returns the next envelope. Blank lines are skipped.
func (d *Decoder) Decode() (Envelope, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		if len(line) > 0 {
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				return Unmarshal(trimmed)
			}
		}
		if err != nil {
			return Envelope{}, err
		}
	}
}

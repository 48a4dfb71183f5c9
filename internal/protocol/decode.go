package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// wireEnvelope defers field decoding so missing and wrong-typed fields can
// be told apart and reported precisely.
type wireEnvelope struct {
	Command json.RawMessage `json:"command"`
	ID      json.RawMessage `json:"id"`
}

type wireCommand struct {
	Name   json.RawMessage `json:"command"`
	Args   json.RawMessage `json:"args"`
	Kwargs json.RawMessage `json:"kwargs"`
}

// Decode parses one inbound envelope strictly: a single JSON object with a
// non-empty string id, a command object with a non-empty string command
// name, optional args array, and optional kwargs object. All violations
// wrap ErrDecode.
func Decode(data []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var wire wireEnvelope
	if err := dec.Decode(&wire); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// bind the id first so later failures can still correlate an error reply
	env := Envelope{}
	if len(wire.ID) == 0 {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, ErrMissingID)
	}
	if err := json.Unmarshal(wire.ID, &env.ID); err != nil {
		return Envelope{}, fmt.Errorf("%w: id must be a string", ErrDecode)
	}
	if env.ID == "" {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, ErrMissingID)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return env, fmt.Errorf("%w: %v", ErrDecode, ErrTrailingData)
	}

	if len(wire.Command) == 0 {
		return env, fmt.Errorf("%w: %v", ErrDecode, ErrMissingCommand)
	}
	var cmd wireCommand
	if err := json.Unmarshal(wire.Command, &cmd); err != nil {
		return env, fmt.Errorf("%w: command must be an object", ErrDecode)
	}
	if len(cmd.Name) == 0 {
		return env, fmt.Errorf("%w: missing command name", ErrDecode)
	}
	if err := json.Unmarshal(cmd.Name, &env.Command.Name); err != nil {
		return env, fmt.Errorf("%w: command name must be a string", ErrDecode)
	}
	if env.Command.Name == "" {
		return env, fmt.Errorf("%w: missing command name", ErrDecode)
	}
	if len(cmd.Args) > 0 {
		if err := json.Unmarshal(cmd.Args, &env.Command.Args); err != nil {
			return env, fmt.Errorf("%w: args must be an array", ErrDecode)
		}
	}
	if len(cmd.Kwargs) > 0 {
		if err := json.Unmarshal(cmd.Kwargs, &env.Command.Kwargs); err != nil {
			return env, fmt.Errorf("%w: kwargs must be an object", ErrDecode)
		}
	}
	return env, nil
}

// RecoverID makes a best-effort second pass over a malformed envelope so an
// error reply can still be correlated. Only the first JSON object is read,
// so an id survives trailing garbage. Returns false when no usable id is
// present.
func RecoverID(data []byte) (string, bool) {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&probe); err != nil {
		return "", false
	}
	if id, ok := probe.ID.(string); ok && id != "" {
		return id, true
	}
	return "", false
}

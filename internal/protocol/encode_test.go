package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/psychopy/liaison/internal/testutil/testlog"
)

func TestNewReplyShape(t *testing.T) {
	testlog.Start(t)

	data, err := json.Marshal(NewReply("cmd_1", "pong"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"cmd_1","tag":"response","response":"pong"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestNewReplyKeepsNilResponse(t *testing.T) {
	testlog.Start(t)

	data, err := json.Marshal(NewReply("cmd_2", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"response":null`) {
		t.Fatalf("expected explicit null response, got %s", data)
	}
}

func TestNewErrorReplyShape(t *testing.T) {
	testlog.Start(t)

	data, err := json.Marshal(NewErrorReply("cmd_3", KindNotFound, "no such name: x"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"cmd_3","tag":"error","error":{"kind":"NotFound","message":"no such name: x"}}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestCoercePassesJSONNativeValues(t *testing.T) {
	testlog.Start(t)

	in := map[string]any{"n": 1.5, "ok": true, "list": []any{"a", nil}}
	out := Coerce(in)
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", out)
	}
	if m["n"] != 1.5 || m["ok"] != true {
		t.Fatalf("unexpected coerced map %v", m)
	}
}

func TestCoerceRendersFuncsAsReferences(t *testing.T) {
	testlog.Start(t)

	out := Coerce(strings.ToUpper)
	s, ok := out.(string)
	if !ok {
		t.Fatalf("expected string reference, got %T", out)
	}
	if !strings.HasPrefix(s, "go:///") || !strings.Contains(s, "ToUpper") {
		t.Fatalf("unexpected reference %q", s)
	}
}

func TestCoerceRendersErrors(t *testing.T) {
	testlog.Start(t)

	if out := Coerce(errors.New("boom")); out != "boom" {
		t.Fatalf("expected error text, got %v", out)
	}
}

func TestCoerceNonFiniteFloats(t *testing.T) {
	testlog.Start(t)

	if out := Coerce(math.NaN()); out != "NaN" {
		t.Fatalf("expected NaN text, got %v", out)
	}
	if out := Coerce(math.Inf(1)); out != "+Inf" {
		t.Fatalf("expected +Inf text, got %v", out)
	}
	if out := Coerce(math.Inf(-1)); out != "-Inf" {
		t.Fatalf("expected -Inf text, got %v", out)
	}
	if out := Coerce(float32(math.NaN())); out != "NaN" {
		t.Fatalf("expected float32 NaN text, got %v", out)
	}
	if out := Coerce(2.5); out != 2.5 {
		t.Fatalf("finite floats must pass through, got %v", out)
	}

	// a reply built from a non-finite result must still encode
	if _, err := json.Marshal(NewReply("cmd_4", math.Sqrt(-1))); err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
}

func TestCoerceFallsBackToPrintedForm(t *testing.T) {
	testlog.Start(t)

	out := Coerce(make(chan int))
	s, ok := out.(string)
	if !ok || s == "" {
		t.Fatalf("expected printed fallback, got %v", out)
	}
}

func TestCoerceKeepsMarshalableStructs(t *testing.T) {
	testlog.Start(t)

	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	out := Coerce(point{X: 1, Y: 2})
	if _, ok := out.(point); !ok {
		t.Fatalf("expected struct passthrough, got %T", out)
	}
}

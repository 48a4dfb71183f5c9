package registry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// RegisterBuiltins installs the stock modules into reg. These give remote
// callers a useful baseline and double as live targets for `register` and
// `run` without the host wiring anything itself.
func RegisterBuiltins(reg *Registry) error {
	builtins := map[string]map[string]any{
		"strings": {
			"upper":    strings.ToUpper,
			"lower":    strings.ToLower,
			"trim":     strings.TrimSpace,
			"split":    strings.Split,
			"join":     strings.Join,
			"contains": strings.Contains,
			"replace":  strings.ReplaceAll,
			"repeat":   strings.Repeat,
			"format":   sprintf,
		},
		"math": {
			"abs":   math.Abs,
			"sqrt":  math.Sqrt,
			"pow":   math.Pow,
			"floor": math.Floor,
			"ceil":  math.Ceil,
			"max":   math.Max,
			"min":   math.Min,
			"mod":   math.Mod,
			"pi":    math.Pi,
			"e":     math.E,
		},
		"time": {
			"now":   nowRFC3339,
			"unix":  nowUnix,
			"sleep": sleepSeconds,
		},
		"sort": {
			"strings": sortedStrings,
			"floats":  sortedFloats,
		},
	}
	for name, symbols := range builtins {
		if err := reg.Register(name, symbols); err != nil {
			return err
		}
	}
	return nil
}

func sprintf(format string, args []any) string {
	return fmt.Sprintf(format, args...)
}

func nowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

func nowUnix() float64 {
	return float64(time.Now().UnixMilli()) / 1000.0
}

// sleepSeconds blocks the calling session; the protocol has no cancellation,
// so a caller aborting a long sleep must close the connection.
func sleepSeconds(seconds float64) string {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	return "slept"
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func sortedFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	sort.Float64s(out)
	return out
}

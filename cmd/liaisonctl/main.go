// liaisonctl sends one command to a running liaison and prints the reply.
//
// Usage:
//
//	liaisonctl -addr localhost:8001 ping
//	liaisonctl -addr localhost:8001 -args '["x", 42]' store
//	liaisonctl -addr localhost:8001 -args '["x"]' get
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/psychopy/liaison/internal/client"
)

func main() {
	var (
		addr   = flag.String("addr", "localhost:8001", "liaison address (host:port or ws:// URL)")
		token  = flag.String("token", "", "auth token, if the liaison requires one")
		args   = flag.String("args", "[]", "positional arguments as a JSON array")
		kwargs = flag.String("kwargs", "{}", "keyword arguments as a JSON object")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "liaisonctl: exactly one command name required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*addr, *token, flag.Arg(0), *args, *kwargs); err != nil {
		fmt.Fprintf(os.Stderr, "liaisonctl: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, token, command, rawArgs, rawKwargs string) error {
	var args []any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Errorf("parse -args: %w", err)
	}
	var kwargs map[string]any
	if err := json.Unmarshal([]byte(rawKwargs), &kwargs); err != nil {
		return fmt.Errorf("parse -kwargs: %w", err)
	}

	c, err := client.DialWithOptions(addr, client.Options{Token: token})
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Call(command, args, kwargs)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// Package eventabi turns human-readable event declarations into go-ethereum
// ABI events and decodes matched logs for display.
package eventabi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Event is a parsed event declaration.
type Event struct {
	abi.Event
	// ExplicitIndexed is set when the declaration marks indexed parameters itself.
	ExplicitIndexed bool
}

// ParseEvent parses declarations such as
//
//	Sync(uint112,uint112)
//	Transfer(address indexed from, address indexed to, uint256 value)
//
// Parameter names and the indexed keyword are optional.
func ParseEvent(decl string) (Event, error) {
	decl = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(decl), "event "))
	open := strings.IndexByte(decl, '(')
	if open <= 0 || !strings.HasSuffix(decl, ")") {
		return Event{}, fmt.Errorf("invalid event declaration: %s", decl)
	}
	name := strings.TrimSpace(decl[:open])
	if strings.ContainsAny(name, " \t,") {
		return Event{}, fmt.Errorf("invalid event name: %s", name)
	}

	params, err := splitParams(decl[open+1 : len(decl)-1])
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", name, err)
	}

	var out Event
	inputs := make(abi.Arguments, 0, len(params))
	for i, p := range params {
		arg, indexed, err := parseParam(p)
		if err != nil {
			return Event{}, fmt.Errorf("event %s param %d: %w", name, i, err)
		}
		if arg.Name == "" {
			arg.Name = fmt.Sprintf("arg%d", i)
		}
		out.ExplicitIndexed = out.ExplicitIndexed || indexed
		inputs = append(inputs, arg)
	}
	out.Event = abi.NewEvent(name, name, false, inputs)
	return out, nil
}

func splitParams(body string) ([]string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				out = append(out, body[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return append(out, body[start:]), nil
}

func parseParam(p string) (abi.Argument, bool, error) {
	fields := strings.Fields(p)
	if len(fields) == 0 {
		return abi.Argument{}, false, fmt.Errorf("empty parameter")
	}
	if strings.HasPrefix(fields[0], "(") {
		return abi.Argument{}, false, fmt.Errorf("tuple parameters are not supported")
	}
	typ, err := abi.NewType(fields[0], "", nil)
	if err != nil {
		return abi.Argument{}, false, err
	}

	arg := abi.Argument{Type: typ}
	rest := fields[1:]
	if len(rest) > 0 && rest[0] == "indexed" {
		arg.Indexed = true
		rest = rest[1:]
	}
	switch len(rest) {
	case 0:
	case 1:
		arg.Name = rest[0]
	default:
		return abi.Argument{}, false, fmt.Errorf("unexpected tokens in %q", p)
	}
	return arg, arg.Indexed, nil
}

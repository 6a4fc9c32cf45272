package eventabi

import "strings"

// IsDeclaration reports whether s looks like an event declaration rather than a topic hash.
func IsDeclaration(s string) bool {
	return strings.Contains(s, "(")
}

// Canonical returns the declaration's canonical signature, e.g. Transfer(address,address,uint256).
func Canonical(decl string) (string, error) {
	ev, err := ParseEvent(decl)
	if err != nil {
		return "", err
	}
	return ev.Sig, nil
}

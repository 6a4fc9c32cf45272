package prover

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// ImageHash returns the image id of a compiled guest: upper-case md5 hex of the wasm bytes.
func ImageHash(wasm []byte) string {
	sum := md5.Sum(wasm)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

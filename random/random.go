// Package random generates short alphanumeric strings, used to build
// throwaway identifiers in tests.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"
)

const charset = "0123456789abcdefghijklmnopqrstuvwxyz"

var rng *mrand.Rand

func init() {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
		return
	}
	rng = mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}

func String(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rng.Intn(len(charset))]
	}
	return string(b)
}

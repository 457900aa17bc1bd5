package askpass

import "github.com/awnumar/memguard"

// Secret is an owned plaintext secret collected from the user. Exactly one
// copy exists: the one inside this value. Callers must invoke Wipe as soon
// as the secret has served its purpose, on every path including errors.
type Secret struct {
	data []byte
}

func newSecret(data []byte) *Secret {
	if data == nil {
		return nil
	}
	return &Secret{data: data}
}

// Bytes exposes the secret without copying. The slice becomes invalid after
// Wipe.
func (s *Secret) Bytes() []byte {
	return s.data
}

// String copies the secret into a string. Prefer Bytes: string copies
// cannot be wiped.
func (s *Secret) String() string {
	return string(s.data)
}

// Len reports the secret length in bytes.
func (s *Secret) Len() int {
	return len(s.data)
}

// Wipe zeroes the secret in place and drops the reference. Safe to call
// more than once and on a nil receiver.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	memguard.WipeBytes(s.data)
	s.data = nil
}

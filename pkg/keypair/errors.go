package keypair

import "fmt"

// ImmutableFieldError indicates that an Update attempted to change a
// property that is locked after creation. It is always fatal and must be
// raised before any mutating call is issued.
type ImmutableFieldError struct {
	// Field is the property that may not change.
	Field string
}

// Error implements the error interface.
func (e ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %s is immutable and cannot be changed after creation", e.Field)
}

// UnsupportedFormatError indicates a public key format that is either not one
// of the supported encodings or is incompatible with the requested key type
// (PKCS#1 is only defined for RSA keys).
type UnsupportedFormatError struct {
	Format  string
	KeyType string
}

// Error implements the error interface.
func (e UnsupportedFormatError) Error() string {
	if e.KeyType != "" {
		return fmt.Sprintf("public key format %s is not supported for key type %s", e.Format, e.KeyType)
	}
	return fmt.Sprintf("unsupported public key format %s", e.Format)
}

// NotFoundError indicates that a uniquely named remote resource could not be
// resolved: either nothing matched the name, or the name was ambiguous.
//
// Existence checks and idempotent deletes treat this error as "does not
// exist" rather than propagating it; everywhere else it is fatal.
type NotFoundError struct {
	// Resource names the kind of remote resource ("key pair", "secret").
	Resource string

	// Name is the identifier that failed to resolve.
	Name string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return e.Resource + " not found: " + e.Name
}

package models

import "fmt"

// DuplicateIDError reports an attempt to insert the same image id twice into
// the fingerprint store. It indicates an upstream scanning bug and aborts
// the run.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate image id: %s", e.ID)
}

// UnsupportedMethodError reports a fingerprint whose method or bit width
// does not match what the resolver was asked to compare.
type UnsupportedMethodError struct {
	Method string
	Reason string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported method %q: %s", e.Method, e.Reason)
}

// UnknownImageError reports a candidate pair or group that references an id
// absent from the fingerprint store. It indicates a broken resolver/store
// contract.
type UnknownImageError struct {
	ID string
}

func (e *UnknownImageError) Error() string {
	return fmt.Sprintf("unknown image id: %s", e.ID)
}

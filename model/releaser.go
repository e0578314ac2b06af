// Package model - Releaser identifies a person entitled to produce artifacts.
package model

import "fmt"

// Releaser holds the signing key identity of a release manager. Immutable
// after creation except for key rotation.
type Releaser struct {
	Key      string `json:"_key,omitempty"`
	Username string `json:"username"`
	KeyID    string `json:"key_id"`
	KeyURL   string `json:"key_url"`
}

func (r *Releaser) String() string {
	return fmt.Sprintf("%s <%s>", r.KeyID, r.KeyURL)
}

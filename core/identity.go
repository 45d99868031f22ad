package core

import "fmt"

// Identity identifies the author of a persisted save.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (identity Identity) String() string {
	if identity.Email == "" {
		return identity.Name
	}
	return fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
}

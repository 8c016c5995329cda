package game

import (
	"encoding/json"
	"fmt"
)

// Role is one of the four seats dealt each round. NoRole marks a player
// who has not been dealt into the current round.
type Role int

const (
	NoRole Role = iota - 1
	Raja
	Mantri
	Chor
	Sipahi
)

// RoleCount is the number of roles dealt per round, and therefore the
// exact number of active players a round needs.
const RoleCount = 4

// Roles lists every dealt role in canonical order.
var Roles = [RoleCount]Role{Raja, Mantri, Chor, Sipahi}

var roleNames = [RoleCount]string{"Raja", "Mantri", "Chor", "Sipahi"}

func (r Role) Valid() bool {
	return r >= Raja && r <= Sipahi
}

func (r Role) String() string {
	if !r.Valid() {
		return "Unknown"
	}
	return roleNames[r]
}

// MarshalJSON encodes a dealt role by name and NoRole as null.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoRole
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRole(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseRole(name string) (Role, error) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return NoRole, fmt.Errorf("unknown role %q", name)
}

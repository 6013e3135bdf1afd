package pattern

import "fmt"

// Role is one of the two protocol participants.
type Role uint8

const (
	Initiator Role = iota
	Responder
)

// Peer returns the other role.
func (r Role) Peer() Role {
	if r == Initiator {
		return Responder
	}
	return Initiator
}

func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Principal is the name the formal model uses for the role.
func (r Role) Principal() string {
	if r == Initiator {
		return "alice"
	}
	return "bob"
}

// Arrow is the noise-notation arrow for messages sent by r.
func (r Role) Arrow() string {
	if r == Initiator {
		return "->"
	}
	return "<-"
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "initiator":
		*r = Initiator
	case "responder":
		*r = Responder
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

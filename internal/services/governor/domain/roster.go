package domain

import "encoding/json"

// Roster is the ordered, duplicate-free operator collection. Order is
// insertion order; membership checks go through an index.
type Roster struct {
	members []Address
	index   map[Address]int
}

// NewRoster builds a roster from members, rejecting duplicates and malformed
// addresses.
func NewRoster(members ...Address) (Roster, error) {
	var r Roster
	for _, member := range members {
		next, err := r.Add(member)
		if err != nil {
			return Roster{}, err
		}
		r = next
	}
	return r, nil
}

// Len returns the number of operators.
func (r Roster) Len() int {
	return len(r.members)
}

// Contains reports whether addr is an operator.
func (r Roster) Contains(addr Address) bool {
	_, ok := r.index[addr]
	return ok
}

// Members returns a copy of the operators in insertion order.
func (r Roster) Members() []Address {
	out := make([]Address, len(r.members))
	copy(out, r.members)
	return out
}

// Add returns a roster with addr appended. The receiver is left untouched.
func (r Roster) Add(addr Address) (Roster, error) {
	if err := addr.Validate(); err != nil {
		return r, err
	}
	if r.Contains(addr) {
		return r, ErrOperatorExists
	}
	members := make([]Address, len(r.members), len(r.members)+1)
	copy(members, r.members)
	members = append(members, addr)
	return rosterOf(members), nil
}

// Remove returns a roster without addr, keeping the relative order of the
// remaining operators. The receiver is left untouched.
func (r Roster) Remove(addr Address) (Roster, error) {
	pos, ok := r.index[addr]
	if !ok {
		return r, ErrOperatorNotFound
	}
	members := make([]Address, 0, len(r.members)-1)
	members = append(members, r.members[:pos]...)
	members = append(members, r.members[pos+1:]...)
	return rosterOf(members), nil
}

func rosterOf(members []Address) Roster {
	index := make(map[Address]int, len(members))
	for i, member := range members {
		index[member] = i
	}
	return Roster{members: members, index: index}
}

// MarshalJSON encodes the roster as an ordered list.
func (r Roster) MarshalJSON() ([]byte, error) {
	members := r.members
	if members == nil {
		members = []Address{}
	}
	return json.Marshal(members)
}

// UnmarshalJSON decodes an ordered list, enforcing the roster invariants.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var members []Address
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	decoded, err := NewRoster(members...)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

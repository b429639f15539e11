// README: Restriction policy table (pickup/dropoff permissions per restriction class).
package zone

type Policy struct {
	PickupAllowed  bool
	DropoffAllowed bool
	Message        string
}

type PolicyTable map[Restriction]Policy

func DefaultPolicies() PolicyTable {
	return PolicyTable{
		RestrictionSafe:    {PickupAllowed: true, DropoffAllowed: true, Message: "Safe zone, taxi service available"},
		RestrictionNeutral: {PickupAllowed: true, DropoffAllowed: true, Message: "Neutral zone, travel at your own risk"},
		RestrictionCombat:  {PickupAllowed: true, DropoffAllowed: false, Message: "Combat zone, emergency pickup only"},
		RestrictionNoTaxi:  {PickupAllowed: false, DropoffAllowed: false, Message: "Taxi service is not allowed in this zone"},
		RestrictionTrade:   {PickupAllowed: true, DropoffAllowed: true, Message: "Trade zone, commercial traffic allowed"},
	}
}

// Merge returns a copy of t with entries from o taking precedence.
func (t PolicyTable) Merge(o PolicyTable) PolicyTable {
	out := make(PolicyTable, len(t)+len(o))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

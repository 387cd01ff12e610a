package balance

// Classification is the outcome of classifying one snapshot: the load
// state plus, in DEMAND, the shortfall the node would ask a supplier for.
type Classification struct {
	State LoadState

	// DemandKW is the demand magnitude in kW. Positive exactly when
	// State is DEMAND, zero otherwise.
	DemandKW float64
}

// Classify derives the node's load state from a device snapshot.
//
// The gateway flow m partitions the rule:
//
//	m == 0 (grid connection idle):
//	    gen > load  → SUPPLY
//	    gen < load  → DEMAND, demand = load - gen
//	    otherwise   → NORMAL
//	m > 0 (donating to the grid):
//	    gen - m > load → SUPPLY
//	    otherwise      → NORMAL
//	m < 0 (receiving from the grid):
//	    gen - m >= load → NORMAL
//	    otherwise       → DEMAND, demand = load - (gen - m)
//
// Degenerate comparisons resolve to NORMAL.
func Classify(s Snapshot) Classification {
	gen := s.NetGen
	load := s.NetLoad
	m := s.Gateway

	switch {
	case m > 0:
		if gen-m > load {
			return Classification{State: StateSupply}
		}
		return Classification{State: StateNormal}

	case m < 0:
		if gen-m >= load {
			return Classification{State: StateNormal}
		}
		return Classification{State: StateDemand, DemandKW: load - (gen - m)}

	default:
		if gen > load {
			return Classification{State: StateSupply}
		}
		if gen < load {
			return Classification{State: StateDemand, DemandKW: load - gen}
		}
		return Classification{State: StateNormal}
	}
}

package framework

type tally struct {
	epics, tickets     int
	epicIDs, ticketIDs []string
}

// Coverage counts, per taxonomy node, the epics and tickets finally assigned
// to it. Every node gets an entry, matched or not, in taxonomy order. Stored
// identifiers are capped at idCap per node and kind; counts are not.
// Final assignments naming no taxonomy node are returned as unmapped counts.
func Coverage(nodes []TaxonomyNode, sets []SetResult, idCap int) ([]CoverageEntry, map[string]int) {
	if idCap <= 0 {
		idCap = DefaultCoverageIDCap
	}
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.Label] = struct{}{}
	}
	tallies := make(map[string]*tally, len(nodes))
	unmapped := make(map[string]int)
	for _, set := range sets {
		for _, res := range set.Results {
			if res.Final == "" {
				continue
			}
			if _, ok := known[res.Final]; !ok {
				unmapped[res.Final]++
				continue
			}
			t := tallies[res.Final]
			if t == nil {
				t = &tally{}
				tallies[res.Final] = t
			}
			switch set.Kind {
			case KindEpic:
				t.epics++
				if res.ID != "" && len(t.epicIDs) < idCap {
					t.epicIDs = append(t.epicIDs, res.ID)
				}
			default:
				t.tickets++
				if res.ID != "" && len(t.ticketIDs) < idCap {
					t.ticketIDs = append(t.ticketIDs, res.ID)
				}
			}
		}
	}
	entries := make([]CoverageEntry, len(nodes))
	for i, n := range nodes {
		entries[i] = CoverageEntry{Label: n.Label}
		if t := tallies[n.Label]; t != nil {
			entries[i].EpicCount = t.epics
			entries[i].TicketCount = t.tickets
			entries[i].EpicIDs = cloneStrings(t.epicIDs)
			entries[i].TicketIDs = cloneStrings(t.ticketIDs)
		}
	}
	return entries, unmapped
}

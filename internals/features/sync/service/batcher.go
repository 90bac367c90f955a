package service

import "sort"

// Tier adalah kelompok change yang di-apply dalam satu transaksi.
type Tier struct {
	Priority int
	Changes  []Change
}

// BatchByTier mengelompokkan change per prioritas (naik).
// Urutan relatif di dalam tier sama dengan urutan input.
func BatchByTier(changes []Change) []Tier {
	index := map[int]int{}
	var tiers []Tier
	for _, ch := range changes {
		p := ch.Kind.Tier()
		i, ok := index[p]
		if !ok {
			i = len(tiers)
			index[p] = i
			tiers = append(tiers, Tier{Priority: p})
		}
		tiers[i].Changes = append(tiers[i].Changes, ch)
	}
	sort.SliceStable(tiers, func(a, b int) bool {
		return tiers[a].Priority < tiers[b].Priority
	})
	return tiers
}

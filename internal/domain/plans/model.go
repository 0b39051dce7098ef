package plans

import (
	"sort"
	"strings"
)

// CreditPack is a non-renewing bundle of report credits.
type CreditPack struct {
	ID      string
	Name    string
	Credits int
}

var creditPacks = map[string]CreditPack{
	"starter": {ID: "starter", Name: "Starter pack", Credits: 5},
	"growth":  {ID: "growth", Name: "Growth pack", Credits: 20},
	"agency":  {ID: "agency", Name: "Agency pack", Credits: 50},
}

func LookupCreditPack(id string) (CreditPack, bool) {
	p, ok := creditPacks[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// CreditPacks lists the catalog ordered by size.
func CreditPacks() []CreditPack {
	out := make([]CreditPack, 0, len(creditPacks))
	for _, p := range creditPacks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Credits < out[j].Credits })
	return out
}

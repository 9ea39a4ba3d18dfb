package taxonomy

import (
	"fmt"
	"strings"
)

// Rank is a taxonomic rank. The set is closed so that a misspelt rank can never create a new bucket.
type Rank uint8

// the ranks found in the NCBI taxonomy
const (
	Unknown Rank = iota
	NoRank
	Realm
	Domain
	Superkingdom
	Kingdom
	Subkingdom
	Phylum
	Subphylum
	Class
	Subclass
	Order
	Suborder
	Family
	Subfamily
	Tribe
	Genus
	Subgenus
	SpeciesGroup
	SpeciesSubgroup
	Species
	Subspecies
	Varietas
	Forma
	Strain
	Serogroup
	Serotype
	Isolate
	Clade
)

var rankNames = [...]string{
	Unknown:         "unknown",
	NoRank:          "no rank",
	Realm:           "realm",
	Domain:          "domain",
	Superkingdom:    "superkingdom",
	Kingdom:         "kingdom",
	Subkingdom:      "subkingdom",
	Phylum:          "phylum",
	Subphylum:       "subphylum",
	Class:           "class",
	Subclass:        "subclass",
	Order:           "order",
	Suborder:        "suborder",
	Family:          "family",
	Subfamily:       "subfamily",
	Tribe:           "tribe",
	Genus:           "genus",
	Subgenus:        "subgenus",
	SpeciesGroup:    "species group",
	SpeciesSubgroup: "species subgroup",
	Species:         "species",
	Subspecies:      "subspecies",
	Varietas:        "varietas",
	Forma:           "forma",
	Strain:          "strain",
	Serogroup:       "serogroup",
	Serotype:        "serotype",
	Isolate:         "isolate",
	Clade:           "clade",
}

var rankLookup = func() map[string]Rank {
	lookup := make(map[string]Rank, len(rankNames))
	for i, name := range rankNames {
		lookup[name] = Rank(i)
	}
	return lookup
}()

// String returns the NCBI name of the rank
func (rank Rank) String() string {
	if int(rank) < len(rankNames) {
		return rankNames[rank]
	}
	return fmt.Sprintf("Rank(%d)", uint8(rank))
}

// ParseRank converts a rank name to a Rank, returning an error for anything outside the enumeration
func ParseRank(name string) (Rank, error) {
	rank, ok := rankLookup[strings.ToLower(strings.TrimSpace(name))]
	if !ok || rank == Unknown {
		return Unknown, fmt.Errorf("unrecognised taxonomic rank: %q", name)
	}
	return rank, nil
}

// parseDumpRank is used by the taxdump loader, which must accept ranks added to NCBI after this enumeration was written
func parseDumpRank(name string) (Rank, bool) {
	rank, ok := rankLookup[name]
	if !ok {
		return Unknown, false
	}
	return rank, true
}

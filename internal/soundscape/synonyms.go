package soundscape

// synonymGroups lists terms treated as interchangeable during matching.
// Membership is mutual within a group.
var synonymGroups = [][]string{
	{"forest", "woods", "woodland", "trees", "jungle"},
	{"cave", "cavern", "underground", "grotto", "tunnel"},
	{"city", "urban", "street", "town", "traffic"},
	{"ocean", "sea", "waves", "coast", "shore", "beach"},
	{"rain", "drizzle", "downpour", "rainfall"},
	{"storm", "thunder", "tempest", "gale"},
	{"wind", "breeze", "draft"},
	{"fire", "flames", "campfire", "hearth", "crackling"},
	{"night", "dark", "evening", "nocturnal"},
	{"water", "river", "stream", "creek", "brook"},
	{"crowd", "people", "chatter", "market", "tavern", "inn"},
	{"ship", "boat", "sail", "vessel", "harbor", "dock"},
	{"mountain", "peak", "highland", "cliff", "alpine"},
	{"castle", "fortress", "keep", "palace"},
	{"meadow", "field", "grassland", "plain", "prairie"},
	{"battle", "war", "combat", "fight"},
	{"church", "cathedral", "chapel", "temple"},
	{"snow", "winter", "blizzard", "frost"},
	{"desert", "dunes", "wasteland"},
	{"swamp", "marsh", "bog", "wetland"},
	{"library", "study", "archive"},
	{"kitchen", "cooking", "stove"},
	{"machinery", "factory", "industrial", "engine"},
	{"birds", "birdsong", "aviary"},
	{"insects", "crickets", "cicadas"},
}

var synonyms = buildSynonyms()

func buildSynonyms() map[string]map[string]struct{} {
	table := make(map[string]map[string]struct{})
	for _, group := range synonymGroups {
		for _, term := range group {
			set, ok := table[term]
			if !ok {
				set = make(map[string]struct{}, len(group))
				table[term] = set
			}
			for _, other := range group {
				if other != term {
					set[other] = struct{}{}
				}
			}
		}
	}
	return table
}

// termsMatch reports whether two terms are equal or synonymous.
func termsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if set, ok := synonyms[a]; ok {
		if _, ok := set[b]; ok {
			return true
		}
	}
	return false
}

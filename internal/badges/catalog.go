package badges

import "sort"

func sortedSlugs() []string {
	out := make([]string, 0, len(Catalog))
	for slug := range Catalog {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

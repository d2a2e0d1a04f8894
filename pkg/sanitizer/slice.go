package sanitizer

import "strings"

// NormalizeStringSlice applies normalizer to every item and drops blanks and
// duplicates. Duplicates are detected on the lowercased value; the first
// spelling wins and order is preserved.
func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, normalized)
	}
	return result
}

func NormalizeSkills(skills []string) []string {
	return NormalizeStringSlice(skills, NormalizeSkill)
}

// SplitSkills turns a legacy comma-separated skills string into a slice.
func SplitSkills(s string) []string {
	return NormalizeSkills(strings.Split(s, ","))
}

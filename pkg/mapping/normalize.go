package mapping

import (
	"sort"
	"strings"
)

// NormalizeStatus maps a raw status string to its bucket name. Named buckets
// are checked first, then the custom bucket map; an unmapped value is returned
// unchanged. Total: never fails.
func NormalizeStatus(value string, cfg *ProjectConfig) string {
	return normalizeBucketed(value, cfg.StatusBuckets)
}

// NormalizePriority maps a raw priority string to its bucket name with the
// same semantics as NormalizeStatus.
func NormalizePriority(value string, cfg *ProjectConfig) string {
	return normalizeBucketed(value, cfg.PriorityBuckets)
}

func normalizeBucketed(value string, mapping BucketMapping) string {
	if bucket, ok := lookupBucket(value, mapping.Buckets); ok {
		return bucket
	}
	if bucket, ok := lookupBucket(value, mapping.Custom); ok {
		return bucket
	}
	return value
}

// lookupBucket scans buckets in sorted name order so that a value appearing in
// more than one bucket resolves deterministically.
func lookupBucket(value string, buckets map[string][]string) (string, bool) {
	if len(buckets) == 0 {
		return "", false
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if containsFold(buckets[name], value) {
			return name, true
		}
	}
	return "", false
}

// CategorizeIssueType maps a raw issue type name to a category. The fixed
// rule list is evaluated in order (user story, defect, epic, task), then the
// custom overrides; anything else is unknown.
func CategorizeIssueType(value string, cfg *ProjectConfig) Category {
	for _, rule := range cfg.typeRules() {
		if containsFold(rule.values, value) {
			return rule.category
		}
	}

	for raw, category := range cfg.IssueTypes.Custom {
		if strings.EqualFold(raw, value) {
			return category
		}
	}

	return CategoryUnknown
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

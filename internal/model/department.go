package model

import "strings"

// Department is a main department filter on a hospital's doctor-list page,
// together with its sub-department filters.
type Department struct {
	// Name is the department's display name.
	Name string `json:"name"`

	// SubDepartments are the second-level filters shown when the
	// department is selected. May be empty.
	SubDepartments []string `json:"sub_departments,omitempty"`
}

// wildcardFilters are filter labels that select everything and therefore
// must not be walked as departments of their own. The directory renders
// them as "全部" (all) and "不限" (unrestricted); the English forms cover
// localized mirrors.
var wildcardFilters = map[string]bool{
	"全部":  true,
	"不限":  true,
	"all": true,
	"any": true,
}

// IsWildcardFilter reports whether a filter label means "everything".
func IsWildcardFilter(name string) bool {
	return wildcardFilters[strings.ToLower(strings.TrimSpace(name))]
}

// RealSubDepartments returns the sub-departments worth visiting, dropping
// wildcard entries. An empty result means the department has no second
// level and should be crawled as a single listing.
func (d Department) RealSubDepartments() []string {
	subs := make([]string, 0, len(d.SubDepartments))
	for _, s := range d.SubDepartments {
		if !IsWildcardFilter(s) {
			subs = append(subs, s)
		}
	}
	return subs
}

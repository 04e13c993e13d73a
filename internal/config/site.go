package config

import "time"

// SelectorSet holds the CSS selectors used to pull data out of directory
// pages. The zero value of any field means "use the built-in default",
// which matches the markup of the reference directory (CSS-module class
// fragments, hence the attribute-contains selectors).
type SelectorSet struct {
	// HospitalMarker identifies the profile section; its absence marks
	// an invalid hospital ID.
	HospitalMarker string `yaml:"hospitalMarker,omitempty"`

	// HospitalName selects the hospital's display name.
	HospitalName string `yaml:"hospitalName,omitempty"`

	// HospitalLogo selects the logo <img>.
	HospitalLogo string `yaml:"hospitalLogo,omitempty"`

	// HospitalTags selects the classification label elements.
	HospitalTags string `yaml:"hospitalTags,omitempty"`

	// HospitalDescription selects the introduction paragraph.
	HospitalDescription string `yaml:"hospitalDescription,omitempty"`

	// HospitalWebsite selects the official-website value. When it
	// matches nothing, the parser falls back to scanning labeled rows.
	HospitalWebsite string `yaml:"hospitalWebsite,omitempty"`

	// Department selects the main department filter entries.
	Department string `yaml:"department,omitempty"`

	// SubDepartment selects the second-level filter entries.
	SubDepartment string `yaml:"subDepartment,omitempty"`

	// DoctorCard selects the doctor cards (anchors) on list pages.
	DoctorCard string `yaml:"doctorCard,omitempty"`

	// NextPage selects the "next page" link on list pages.
	NextPage string `yaml:"nextPage,omitempty"`

	// DoctorMarker identifies the detail section on a doctor page.
	DoctorMarker string `yaml:"doctorMarker,omitempty"`

	// DoctorName, DoctorTitle, DoctorDepartment, DoctorBio,
	// DoctorSpecialty, and DoctorAvatar select the detail-page fields.
	DoctorName       string `yaml:"doctorName,omitempty"`
	DoctorTitle      string `yaml:"doctorTitle,omitempty"`
	DoctorDepartment string `yaml:"doctorDepartment,omitempty"`
	DoctorBio        string `yaml:"doctorBio,omitempty"`
	DoctorSpecialty  string `yaml:"doctorSpecialty,omitempty"`
	DoctorAvatar     string `yaml:"doctorAvatar,omitempty"`
}

// SiteProfile holds site-specific crawl settings for one directory host.
type SiteProfile struct {
	// Cookie is an HTTP cookie header value sent with every request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the global politeness delay for this site.
	Delay time.Duration `yaml:"delay,omitempty"`

	// Selectors override the built-in CSS selectors.
	Selectors SelectorSet `yaml:"selectors,omitempty"`
}

// File represents the structure of the .hospscan configuration file.
type File struct {
	// Sites maps directory hostnames to their profiles
	// (e.g. "www.youlai.cn").
	Sites map[string]SiteProfile `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden.
	Defaults SiteProfile `yaml:"defaults,omitempty"`
}

// ProfileFor returns the profile for a directory host, merging the
// site-specific entry over the defaults.
func (f *File) ProfileFor(host string) SiteProfile {
	result := f.Defaults

	site, ok := f.Sites[host]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Delay != 0 {
		result.Delay = site.Delay
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	result.Selectors = mergeSelectors(result.Selectors, site.Selectors)

	return result
}

// mergeSelectors overlays non-empty fields of override onto base.
func mergeSelectors(base, override SelectorSet) SelectorSet {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}

	return SelectorSet{
		HospitalMarker:      pick(base.HospitalMarker, override.HospitalMarker),
		HospitalName:        pick(base.HospitalName, override.HospitalName),
		HospitalLogo:        pick(base.HospitalLogo, override.HospitalLogo),
		HospitalTags:        pick(base.HospitalTags, override.HospitalTags),
		HospitalDescription: pick(base.HospitalDescription, override.HospitalDescription),
		HospitalWebsite:     pick(base.HospitalWebsite, override.HospitalWebsite),
		Department:          pick(base.Department, override.Department),
		SubDepartment:       pick(base.SubDepartment, override.SubDepartment),
		DoctorCard:          pick(base.DoctorCard, override.DoctorCard),
		NextPage:            pick(base.NextPage, override.NextPage),
		DoctorMarker:        pick(base.DoctorMarker, override.DoctorMarker),
		DoctorName:          pick(base.DoctorName, override.DoctorName),
		DoctorTitle:         pick(base.DoctorTitle, override.DoctorTitle),
		DoctorDepartment:    pick(base.DoctorDepartment, override.DoctorDepartment),
		DoctorBio:           pick(base.DoctorBio, override.DoctorBio),
		DoctorSpecialty:     pick(base.DoctorSpecialty, override.DoctorSpecialty),
		DoctorAvatar:        pick(base.DoctorAvatar, override.DoctorAvatar),
	}
}

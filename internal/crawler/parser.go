package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/model"
)

// ErrNoHospital is returned when a page does not contain a hospital
// profile section. The directory serves a styled placeholder page for
// unused IDs instead of an HTTP 404, so the marker element is the only
// reliable signal.
var ErrNoHospital = errors.New("page has no hospital profile")

// ErrNoDoctor is returned when a doctor detail page does not contain
// the expected detail section.
var ErrNoDoctor = errors.New("page has no doctor profile")

// websiteLabel marks the official-website row on hospital profiles.
const websiteLabel = "医院官网"

// defaultSelectors matches the reference directory's markup. The site
// uses CSS modules, so class names carry generated suffixes and the
// selectors match on class-name fragments.
var defaultSelectors = config.SelectorSet{
	HospitalMarker:      `div[class*=nameTag--]`,
	HospitalName:        `h1[class*=name--]`,
	HospitalLogo:        `div[class*=logo--] img`,
	HospitalTags:        `ul[class*=tags--] span`,
	HospitalDescription: `div[class*=lineClamp__3]`,
	HospitalWebsite:     "",
	Department:          `div[class*=rightContent] div[class*=box--]`,
	SubDepartment:       `div[class*=levelTwo--] div[class*=text--]`,
	DoctorCard:          `a[class*=block--]`,
	NextPage:            `div[class*=pagination--] a[class*=next--]`,
	DoctorMarker:        `section[class*=doctorInfoContainer]`,
	DoctorName:          `span.doc-name`,
	DoctorTitle:         `div[class*=doctorInfo--] h3 a span:last-child`,
	DoctorDepartment:    `div.doc-dept`,
	DoctorBio:           `div[class*=doctorInfoExtraIntro]`,
	DoctorSpecialty:     `div[class*=doctorInfoExtraSkill]`,
	DoctorAvatar:        `div[class*=avatarBox--] img`,
}

// Parser extracts hospital and doctor records from directory HTML.
// The zero value is not usable; construct it with NewParser.
type Parser struct {
	sel config.SelectorSet
}

// NewParser creates a Parser. Non-empty fields of overrides replace the
// built-in selectors; everything else keeps the defaults.
func NewParser(overrides config.SelectorSet) *Parser {
	sel := defaultSelectors

	pick := func(dst *string, o string) {
		if o != "" {
			*dst = o
		}
	}
	pick(&sel.HospitalMarker, overrides.HospitalMarker)
	pick(&sel.HospitalName, overrides.HospitalName)
	pick(&sel.HospitalLogo, overrides.HospitalLogo)
	pick(&sel.HospitalTags, overrides.HospitalTags)
	pick(&sel.HospitalDescription, overrides.HospitalDescription)
	pick(&sel.HospitalWebsite, overrides.HospitalWebsite)
	pick(&sel.Department, overrides.Department)
	pick(&sel.SubDepartment, overrides.SubDepartment)
	pick(&sel.DoctorCard, overrides.DoctorCard)
	pick(&sel.NextPage, overrides.NextPage)
	pick(&sel.DoctorMarker, overrides.DoctorMarker)
	pick(&sel.DoctorName, overrides.DoctorName)
	pick(&sel.DoctorTitle, overrides.DoctorTitle)
	pick(&sel.DoctorDepartment, overrides.DoctorDepartment)
	pick(&sel.DoctorBio, overrides.DoctorBio)
	pick(&sel.DoctorSpecialty, overrides.DoctorSpecialty)
	pick(&sel.DoctorAvatar, overrides.DoctorAvatar)

	return &Parser{sel: sel}
}

// ParseHospital extracts a hospital profile from a hospital page.
// It returns ErrNoHospital when the page is a placeholder for an
// unused ID. ID, PageURL and Status are set by the caller.
func (p *Parser) ParseHospital(body []byte, pageURL string) (*model.Hospital, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	if doc.Find(p.sel.HospitalMarker).Length() == 0 {
		return nil, ErrNoHospital
	}

	h := &model.Hospital{
		Name:        cleanText(doc.Find(p.sel.HospitalName).First().Text()),
		Description: cleanText(doc.Find(p.sel.HospitalDescription).First().Text()),
		PageURL:     pageURL,
		Status:      model.HospitalOK,
	}

	if src, ok := doc.Find(p.sel.HospitalLogo).First().Attr("src"); ok && usableImage(src) {
		h.LogoURL = resolveURL(pageURL, src)
	}

	doc.Find(p.sel.HospitalTags).Each(func(_ int, s *goquery.Selection) {
		if tag := cleanText(s.Text()); tag != "" {
			h.Tags = append(h.Tags, tag)
		}
	})

	h.Website = p.parseWebsite(doc)

	return h, nil
}

// parseWebsite reads the official-website value. When no selector is
// configured it scans for the labeled row, which on the reference
// markup has no stable class of its own.
func (p *Parser) parseWebsite(doc *goquery.Document) string {
	if p.sel.HospitalWebsite != "" {
		return cleanText(doc.Find(p.sel.HospitalWebsite).First().Text())
	}

	var website string
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := cleanText(s.Text())
		if !strings.Contains(label, websiteLabel) {
			return true
		}
		if v := cleanText(s.Next().Text()); v != "" {
			website = v
			return false
		}
		// Label and value share a parent; strip the label text.
		parent := cleanText(s.Parent().Text())
		website = cleanText(strings.TrimPrefix(strings.TrimPrefix(parent, label), ":"))
		return website == ""
	})
	return website
}

// ParseDepartments extracts the department filter tree from a doctor
// list page. Wildcard entries ("全部", "不限") are kept; callers decide
// whether to iterate them.
func (p *Parser) ParseDepartments(body []byte) ([]model.Department, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	var depts []model.Department
	doc.Find(p.sel.Department).Each(func(_ int, s *goquery.Selection) {
		var subs []string
		s.Find(p.sel.SubDepartment).Each(func(_ int, sub *goquery.Selection) {
			if name := cleanText(sub.Text()); name != "" {
				subs = append(subs, name)
			}
		})

		// The box's own text, minus the sub-department entries, is the
		// main department name.
		own := s.Clone()
		own.Find(p.sel.SubDepartment).Remove()
		name := cleanText(own.Text())
		if name == "" {
			return
		}

		depts = append(depts, model.Department{Name: name, SubDepartments: subs})
	})

	return depts, nil
}

// ParseDoctorList extracts doctor detail-page targets from a list page
// and reports whether a further page exists. Card hrefs are resolved
// against pageURL; the card image is kept as the avatar fallback.
func (p *Parser) ParseDoctorList(body []byte, pageURL string) (targets []model.Target, hasNext bool, err error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, false, err
	}

	doc.Find(p.sel.DoctorCard).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}

		t := model.Target{URL: resolveURL(pageURL, href)}
		if src, ok := s.Find("img").First().Attr("src"); ok && usableImage(src) {
			t.AvatarSrc = resolveURL(pageURL, src)
		}
		targets = append(targets, t)
	})

	next := doc.Find(p.sel.NextPage).First()
	if next.Length() > 0 && !next.HasClass("disabled") {
		if href, ok := next.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "javascript:") {
			hasNext = true
		}
	}

	return targets, hasNext, nil
}

// ParseDoctorDetail extracts a doctor record from a detail page.
// It returns ErrNoDoctor when the detail section is missing. Hospital,
// Department and SubDepartment fall back to the crawl context when the
// page itself does not carry them.
func (p *Parser) ParseDoctorDetail(body []byte, pageURL string) (*model.Doctor, error) {
	doc, err := newDocument(body)
	if err != nil {
		return nil, err
	}

	if doc.Find(p.sel.DoctorMarker).Length() == 0 {
		return nil, ErrNoDoctor
	}

	d := &model.Doctor{
		Name:       cleanText(doc.Find(p.sel.DoctorName).First().Text()),
		Title:      cleanText(doc.Find(p.sel.DoctorTitle).First().Text()),
		Bio:        stripLabel(cleanText(doc.Find(p.sel.DoctorBio).First().Text()), "简介"),
		Specialty:  stripLabel(cleanText(doc.Find(p.sel.DoctorSpecialty).First().Text()), "擅长"),
		ProfileURL: pageURL,
	}

	// The department line reads "<department> <sub-department>".
	if fields := strings.Fields(doc.Find(p.sel.DoctorDepartment).First().Text()); len(fields) > 0 {
		d.Department = fields[0]
		if len(fields) > 1 {
			d.SubDepartment = fields[1]
		}
	}

	if src, ok := doc.Find(p.sel.DoctorAvatar).First().Attr("src"); ok && usableImage(src) {
		d.AvatarURL = resolveURL(pageURL, src)
	}

	return d, nil
}

// newDocument parses UTF-8 HTML into a goquery document.
func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// cleanText trims a text node and collapses internal runs of
// whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLabel removes a leading field label such as "简介：" from a
// block's text. The site uses the full-width colon, but the ASCII
// variant shows up on older pages.
func stripLabel(s, label string) string {
	for _, prefix := range []string{label + "：", label + ":"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

// usableImage reports whether an image src is worth keeping. Inline
// data URIs and the site's lazy-load placeholders are not.
func usableImage(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return false
	}
	return !strings.Contains(src, "default") && !strings.Contains(src, "placeholder")
}

// resolveURL resolves ref against base, returning ref unchanged when
// either side does not parse.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

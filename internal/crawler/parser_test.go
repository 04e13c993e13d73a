package crawler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hospscan/hospscan/internal/config"
)

const hospitalPage = `<!DOCTYPE html>
<html><body>
<div class="nameTag--x3f">
  <h1 class="name--k2">北京协和医院</h1>
</div>
<div class="logo--a1"><img src="/img/logo_1.png"></div>
<ul class="tags--b2">
  <li><span>三级甲等</span></li>
  <li><span>综合医院</span></li>
</ul>
<div class="lineClamp__3">  医院创建于1921年，
  是一所综合医院。 </div>
<div class="row">
  <span>医院官网</span><span>www.pumch.cn</span>
</div>
</body></html>`

func TestParserParseHospital(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})
	pageURL := "https://www.youlai.cn/yyk/hospindex/1/"

	h, err := p.ParseHospital([]byte(hospitalPage), pageURL)
	if err != nil {
		t.Fatalf("ParseHospital() error = %v", err)
	}

	if h.Name != "北京协和医院" {
		t.Errorf("Name = %q, want %q", h.Name, "北京协和医院")
	}
	if h.LogoURL != "https://www.youlai.cn/img/logo_1.png" {
		t.Errorf("LogoURL = %q, want resolved absolute URL", h.LogoURL)
	}
	wantTags := []string{"三级甲等", "综合医院"}
	if !reflect.DeepEqual(h.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", h.Tags, wantTags)
	}
	if h.Description != "医院创建于1921年， 是一所综合医院。" {
		t.Errorf("Description = %q, whitespace not collapsed", h.Description)
	}
	if h.Website != "www.pumch.cn" {
		t.Errorf("Website = %q, want %q", h.Website, "www.pumch.cn")
	}
	if h.PageURL != pageURL {
		t.Errorf("PageURL = %q, want %q", h.PageURL, pageURL)
	}
}

func TestParserParseHospitalPlaceholder(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})

	page := `<html><body><div class="empty">页面不存在</div></body></html>`
	if _, err := p.ParseHospital([]byte(page), "https://www.youlai.cn/yyk/hospindex/9999/"); !errors.Is(err, ErrNoHospital) {
		t.Errorf("ParseHospital() error = %v, want ErrNoHospital", err)
	}
}

func TestParserParseHospitalSelectorOverride(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{
		HospitalMarker: "div.profile",
		HospitalName:   "div.profile h2",
	})

	page := `<html><body><div class="profile"><h2>上海市第一人民医院</h2></div></body></html>`
	h, err := p.ParseHospital([]byte(page), "https://example.com/h/1")
	if err != nil {
		t.Fatalf("ParseHospital() error = %v", err)
	}
	if h.Name != "上海市第一人民医院" {
		t.Errorf("Name = %q, want override selector to apply", h.Name)
	}
}

const departmentsPage = `<!DOCTYPE html>
<html><body>
<div class="rightContent">
  <div class="box--a">
    <div class="text--m">全部</div>
  </div>
  <div class="box--b">
    <div class="text--m">内科</div>
    <div class="levelTwo--x">
      <div class="text--s">全部</div>
      <div class="text--s">心血管内科</div>
      <div class="text--s">消化内科</div>
    </div>
  </div>
  <div class="box--c">
    <div class="text--m">医学影像科</div>
  </div>
</div>
</body></html>`

func TestParserParseDepartments(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})

	depts, err := p.ParseDepartments([]byte(departmentsPage))
	if err != nil {
		t.Fatalf("ParseDepartments() error = %v", err)
	}

	if len(depts) != 3 {
		t.Fatalf("len(depts) = %d, want 3", len(depts))
	}
	if depts[0].Name != "全部" {
		t.Errorf("depts[0].Name = %q, want wildcard entry preserved", depts[0].Name)
	}
	if depts[1].Name != "内科" {
		t.Errorf("depts[1].Name = %q, want %q", depts[1].Name, "内科")
	}
	wantSubs := []string{"全部", "心血管内科", "消化内科"}
	if !reflect.DeepEqual(depts[1].SubDepartments, wantSubs) {
		t.Errorf("depts[1].SubDepartments = %v, want %v", depts[1].SubDepartments, wantSubs)
	}
	if depts[2].Name != "医学影像科" || len(depts[2].SubDepartments) != 0 {
		t.Errorf("depts[2] = %+v, want single-level department", depts[2])
	}
}

const doctorListPage = `<!DOCTYPE html>
<html><body>
<div class="list">
  <a class="block--1" href="/doctor/101/"><img src="/img/doc101.jpg"><span>李医生</span></a>
  <a class="block--2" href="/doctor/102/"><img src="data:image/gif;base64,R0lGOD"><span>王医生</span></a>
  <a class="block--3"><span>无链接</span></a>
</div>
<div class="pagination--p"><a class="next--n" href="?page=2">下一页</a></div>
</body></html>`

func TestParserParseDoctorList(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})
	pageURL := "https://www.youlai.cn/yyk/hospindex/1/doctorlist.html"

	targets, hasNext, err := p.ParseDoctorList([]byte(doctorListPage), pageURL)
	if err != nil {
		t.Fatalf("ParseDoctorList() error = %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2 (card without href dropped)", len(targets))
	}
	if targets[0].URL != "https://www.youlai.cn/doctor/101/" {
		t.Errorf("targets[0].URL = %q, want resolved absolute URL", targets[0].URL)
	}
	if targets[0].AvatarSrc != "https://www.youlai.cn/img/doc101.jpg" {
		t.Errorf("targets[0].AvatarSrc = %q, want card image", targets[0].AvatarSrc)
	}
	if targets[1].AvatarSrc != "" {
		t.Errorf("targets[1].AvatarSrc = %q, want data URI dropped", targets[1].AvatarSrc)
	}
	if !hasNext {
		t.Error("hasNext = false, want true")
	}
}

func TestParserParseDoctorListLastPage(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})

	page := `<html><body>
<a class="block--1" href="/doctor/103/"><span>赵医生</span></a>
<div class="pagination--p"><a class="next--n disabled" href="javascript:void(0)">下一页</a></div>
</body></html>`

	targets, hasNext, err := p.ParseDoctorList([]byte(page), "https://www.youlai.cn/yyk/hospindex/1/doctorlist.html")
	if err != nil {
		t.Fatalf("ParseDoctorList() error = %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	if hasNext {
		t.Error("hasNext = true, want false for disabled next link")
	}
}

const doctorDetailPage = `<!DOCTYPE html>
<html><body>
<section class="doctorInfoContainer--z">
  <div class="avatarBox--a"><img src="/img/li.jpg"></div>
  <div class="doctorInfo--i">
    <h3><a href="/doctor/101/"><span class="doc-name">李医生</span><span>主任医师</span></a></h3>
    <div class="doc-dept">内科 心血管内科</div>
  </div>
  <div class="doctorInfoExtraIntro--e">简介：李医生从业三十年。</div>
  <div class="doctorInfoExtraSkill--s">擅长：冠心病、高血压的诊治。</div>
</section>
</body></html>`

func TestParserParseDoctorDetail(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})
	pageURL := "https://www.youlai.cn/doctor/101/"

	d, err := p.ParseDoctorDetail([]byte(doctorDetailPage), pageURL)
	if err != nil {
		t.Fatalf("ParseDoctorDetail() error = %v", err)
	}

	if d.Name != "李医生" {
		t.Errorf("Name = %q, want %q", d.Name, "李医生")
	}
	if d.Title != "主任医师" {
		t.Errorf("Title = %q, want %q", d.Title, "主任医师")
	}
	if d.Department != "内科" || d.SubDepartment != "心血管内科" {
		t.Errorf("Department/SubDepartment = %q/%q, want split from department line", d.Department, d.SubDepartment)
	}
	if d.Bio != "李医生从业三十年。" {
		t.Errorf("Bio = %q, want label prefix stripped", d.Bio)
	}
	if d.Specialty != "冠心病、高血压的诊治。" {
		t.Errorf("Specialty = %q, want label prefix stripped", d.Specialty)
	}
	if d.AvatarURL != "https://www.youlai.cn/img/li.jpg" {
		t.Errorf("AvatarURL = %q, want resolved absolute URL", d.AvatarURL)
	}
	if d.ProfileURL != pageURL {
		t.Errorf("ProfileURL = %q, want %q", d.ProfileURL, pageURL)
	}
}

func TestParserParseDoctorDetailMissing(t *testing.T) {
	t.Parallel()

	p := NewParser(config.SelectorSet{})

	page := `<html><body><div class="err404">页面不存在</div></body></html>`
	if _, err := p.ParseDoctorDetail([]byte(page), "https://www.youlai.cn/doctor/9/"); !errors.Is(err, ErrNoDoctor) {
		t.Errorf("ParseDoctorDetail() error = %v, want ErrNoDoctor", err)
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims and collapses", in: "  a \n\t b  ", want: "a b"},
		{name: "empty", in: "   ", want: ""},
		{name: "plain", in: "内科", want: "内科"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "full-width colon", in: "简介：从业三十年。", want: "从业三十年。"},
		{name: "ascii colon", in: "简介: 从业三十年。", want: "从业三十年。"},
		{name: "no label", in: "从业三十年。", want: "从业三十年。"},
		{name: "label mid-text kept", in: "这段简介：保留", want: "这段简介：保留"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := stripLabel(tt.in, "简介"); got != tt.want {
				t.Errorf("stripLabel(%q, %q) = %q, want %q", tt.in, "简介", got, tt.want)
			}
		})
	}
}

func TestUsableImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "normal image", src: "/img/doc.jpg", want: true},
		{name: "empty", src: "", want: false},
		{name: "data uri", src: "data:image/gif;base64,R0lGOD", want: false},
		{name: "lazy-load default", src: "/img/default_doctor.png", want: false},
		{name: "placeholder", src: "/img/placeholder.png", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := usableImage(tt.src); got != tt.want {
				t.Errorf("usableImage(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

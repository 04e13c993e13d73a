package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hospscan/hospscan/internal/checkpoint"
	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/database"
	"github.com/hospscan/hospscan/internal/export"
	"github.com/hospscan/hospscan/internal/fetch"
	"github.com/hospscan/hospscan/internal/model"
)

// Spider crawls a hospital ID range: one profile page and one
// paginated, department-filtered doctor listing per hospital. Every
// extracted record is appended to its CSV file immediately, and the
// crawl position is checkpointed so an interrupted run resumes where
// it stopped.
type Spider struct {
	cfg    *config.Config
	client *fetch.Client
	parser *Parser
	store  *checkpoint.Store
	db     *database.CrawlDB
	logger *slog.Logger

	// mu guards hospitals.csv appends, checkpoint writes and seenHosp
	// when hospitals are crawled concurrently.
	mu       sync.Mutex
	seenHosp map[string]bool

	hospitalsOK       atomic.Int64
	hospitalsNotFound atomic.Int64
	hospitalsFailed   atomic.Int64
	hospitalsSkipped  atomic.Int64
	doctorsSaved      atomic.Int64
}

// Stats is a snapshot of crawl counters.
type Stats struct {
	HospitalsOK       int64
	HospitalsNotFound int64
	HospitalsFailed   int64
	HospitalsSkipped  int64
	DoctorsSaved      int64
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithDB mirrors crawl results into the given database in addition to
// the CSV files.
func WithDB(db *database.CrawlDB) SpiderOption {
	return func(s *Spider) {
		s.db = db
	}
}

// WithClient replaces the HTTP client built from the configuration.
func WithClient(client *fetch.Client) SpiderOption {
	return func(s *Spider) {
		s.client = client
	}
}

// NewSpider creates a Spider for the given configuration. The site
// profile matching the base URL's host supplies cookies, extra headers,
// a delay override and selector overrides.
func NewSpider(cfg *config.Config, store *checkpoint.Store, opts ...SpiderOption) (*Spider, error) {
	var profile config.SiteProfile
	if cfg.Sites != nil {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		profile = cfg.Sites.ProfileFor(u.Host)
	}

	s := &Spider{
		cfg:      cfg,
		parser:   NewParser(profile.Selectors),
		store:    store,
		logger:   slog.Default(),
		seenHosp: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		delay := cfg.Delay
		if profile.Delay != 0 {
			delay = profile.Delay
		}

		clientOpts := []fetch.Option{
			fetch.WithTimeout(cfg.Timeout),
			fetch.WithDelay(delay),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
		}
		if cfg.UserAgent != "" {
			clientOpts = append(clientOpts, fetch.WithUserAgent(cfg.UserAgent))
		}
		if profile.Cookie != "" {
			clientOpts = append(clientOpts, fetch.WithCookie(profile.Cookie))
		}
		if len(profile.Headers) > 0 {
			clientOpts = append(clientOpts, fetch.WithHeaders(profile.Headers))
		}
		s.client = fetch.NewClient(clientOpts...)
	}

	return s, nil
}

// Stats returns a snapshot of the crawl counters.
func (s *Spider) Stats() Stats {
	return Stats{
		HospitalsOK:       s.hospitalsOK.Load(),
		HospitalsNotFound: s.hospitalsNotFound.Load(),
		HospitalsFailed:   s.hospitalsFailed.Load(),
		HospitalsSkipped:  s.hospitalsSkipped.Load(),
		DoctorsSaved:      s.doctorsSaved.Load(),
	}
}

// resumeState carries the mid-hospital position restored from a
// checkpoint. It applies to the first hospital of a resumed run only.
type resumeState struct {
	deptIdx int
	subIdx  int
	pending []model.Target
}

// Run crawls the configured ID range. Per-page failures are recorded
// and skipped; only context cancellation, checkpoint errors and output
// write errors abort the run.
func (s *Spider) Run(ctx context.Context) error {
	start := s.cfg.RangeStart
	var resume *resumeState

	progress, err := s.store.LoadProgress()
	if err != nil {
		if !errors.Is(err, checkpoint.ErrCorrupt) {
			return err
		}
		s.logger.Warn("checkpoint is corrupt, starting fresh", "error", err)
		progress = nil
	}
	if progress != nil {
		if progress.HospitalRange == s.cfg.Range() {
			if progress.CurrentHospitalID > start {
				start = progress.CurrentHospitalID
			}
			resume = &resumeState{
				deptIdx: progress.MainDeptIndex,
				subIdx:  progress.SubDeptIndex,
				pending: s.store.LoadPending(),
			}
			s.logger.Info("resuming crawl",
				"hospital_id", start,
				"dept_index", progress.MainDeptIndex,
				"pending_doctors", len(resume.pending))
		} else {
			s.logger.Info("checkpoint covers a different range, starting fresh",
				"checkpoint_range", progress.HospitalRange,
				"range", s.cfg.Range())
		}
	}

	if start > s.cfg.RangeEnd {
		s.logger.Info("range already completed", "range", s.cfg.Range())
		return nil
	}

	seen, err := export.LoadLinkColumn(export.HospitalsCSVPath(s.cfg.OutDir), "page_url")
	if err != nil {
		return err
	}
	s.seenHosp = seen

	if err := s.client.Check(ctx, s.cfg.BaseURL); err != nil {
		return err
	}

	if s.cfg.BatchSize > 1 {
		return s.runBatch(ctx, start, resume != nil)
	}

	for id := start; id <= s.cfg.RangeEnd; id++ {
		st := resume
		resume = nil

		p := checkpoint.Progress{HospitalRange: s.cfg.Range(), CurrentHospitalID: id}
		if st != nil {
			p.MainDeptIndex = st.deptIdx
			p.SubDeptIndex = st.subIdx
		}
		if err := s.saveProgress(p); err != nil {
			return err
		}

		if err := s.crawlHospital(ctx, id, st); err != nil {
			return err
		}
		if err := s.store.ClearPending(); err != nil {
			return err
		}

		if id < s.cfg.RangeEnd {
			if err := s.hospitalPause(ctx); err != nil {
				return err
			}
		}
	}

	// Park the cursor past the end so a rerun is a no-op.
	return s.saveProgress(checkpoint.Progress{
		HospitalRange:     s.cfg.Range(),
		CurrentHospitalID: s.cfg.RangeEnd + 1,
	})
}

// crawlHospital processes one hospital: profile page first, then the
// doctor listing. A hospital already present in hospitals.csv is
// skipped entirely unless a checkpoint resume marks it as unfinished.
func (s *Spider) crawlHospital(ctx context.Context, id int, st *resumeState) error {
	pageURL := s.cfg.HospitalURL(id)

	if s.hospitalSeen(pageURL) && st == nil {
		s.hospitalsSkipped.Add(1)
		s.logger.Debug("hospital already saved, skipping", "hospital_id", id)
		return nil
	}

	resp, err := s.client.Get(ctx, pageURL)
	switch {
	case errors.Is(err, fetch.ErrNotFound):
		return s.recordHospital(ctx, model.Hospital{ID: id, PageURL: pageURL, Status: model.HospitalNotFound})
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("hospital fetch failed", "hospital_id", id, "error", err)
		return s.recordHospital(ctx, model.Hospital{ID: id, PageURL: pageURL, Status: model.HospitalError})
	}

	h, err := s.parser.ParseHospital(resp.Body, pageURL)
	switch {
	case errors.Is(err, ErrNoHospital):
		s.logger.Debug("no hospital at this id", "hospital_id", id)
		return s.recordHospital(ctx, model.Hospital{ID: id, PageURL: pageURL, Status: model.HospitalNotFound})
	case err != nil:
		s.logger.Warn("hospital parse failed", "hospital_id", id, "error", err)
		return s.recordHospital(ctx, model.Hospital{ID: id, PageURL: pageURL, Status: model.HospitalError})
	}

	h.ID = id
	if err := s.recordHospital(ctx, *h); err != nil {
		return err
	}
	if !h.Crawlable() {
		return nil
	}

	s.logger.Info("crawling hospital", "hospital_id", id, "name", h.Name)
	return s.crawlDoctors(ctx, id, h.Name, st)
}

// recordHospital persists a hospital row. The CSV append is skipped
// when the row already exists; the database upsert always runs so the
// stored row follows the freshest parse.
func (s *Spider) recordHospital(ctx context.Context, h model.Hospital) error {
	switch h.Status {
	case model.HospitalOK:
		s.hospitalsOK.Add(1)
	case model.HospitalNotFound:
		s.hospitalsNotFound.Add(1)
	default:
		s.hospitalsFailed.Add(1)
	}

	s.mu.Lock()
	if !s.seenHosp[h.PageURL] {
		if err := export.AppendRow(export.HospitalsCSVPath(s.cfg.OutDir), model.HospitalCSVHeader, h.CSVRow()); err != nil {
			s.mu.Unlock()
			return err
		}
		s.seenHosp[h.PageURL] = true
	}
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.UpsertHospital(ctx, h); err != nil {
			s.logger.Warn("database upsert failed", "hospital_id", h.ID, "error", err)
		}
	}
	return nil
}

// crawlDoctors walks the hospital's doctor listing department by
// department. Leftover detail-page targets from an interrupted run are
// finished first.
func (s *Spider) crawlDoctors(ctx context.Context, id int, hospitalName string, st *resumeState) error {
	listURL := s.cfg.DoctorListURL(id)
	resp, err := s.client.Get(ctx, listURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, fetch.ErrNotFound) {
			s.logger.Debug("no doctor listing", "hospital_id", id)
			return nil
		}
		s.logger.Warn("doctor listing fetch failed", "hospital_id", id, "error", err)
		return nil
	}

	depts, err := s.parser.ParseDepartments(resp.Body)
	if err != nil {
		s.logger.Warn("department parse failed", "hospital_id", id, "error", err)
		return nil
	}

	seenDoctors, err := export.LoadLinkColumn(export.DoctorsCSVPath(s.cfg.OutDir, id, hospitalName), "profile_url")
	if err != nil {
		return err
	}

	if st != nil && len(st.pending) > 0 {
		for _, t := range st.pending {
			if err := s.crawlDoctor(ctx, id, hospitalName, "", "", t, seenDoctors); err != nil {
				return err
			}
			if err := s.removePending(t.URL); err != nil {
				return err
			}
		}
	}

	if len(depts) == 0 {
		return s.crawlListing(ctx, id, hospitalName, "", "", seenDoctors)
	}

	deptStart, subStart := 0, 0
	if st != nil {
		deptStart, subStart = st.deptIdx, st.subIdx
		if deptStart >= len(depts) {
			return nil
		}
	}

	for di := deptStart; di < len(depts); di++ {
		dept := depts[di]
		if model.IsWildcardFilter(dept.Name) {
			continue
		}

		subs := dept.RealSubDepartments()
		if len(subs) == 0 {
			if err := s.saveDeptProgress(id, di, 0); err != nil {
				return err
			}
			if err := s.crawlListing(ctx, id, hospitalName, dept.Name, "", seenDoctors); err != nil {
				return err
			}
			continue
		}

		si := 0
		if di == deptStart {
			si = min(subStart, len(subs)-1)
		}
		for ; si < len(subs); si++ {
			if err := s.saveDeptProgress(id, di, si); err != nil {
				return err
			}
			if err := s.crawlListing(ctx, id, hospitalName, dept.Name, subs[si], seenDoctors); err != nil {
				return err
			}
		}
	}

	return nil
}

// crawlListing pages through one department filter, crawling every
// doctor card not yet in the hospital's CSV. Pagination stops at the
// last page, at an empty page, or at the configured page cap.
func (s *Spider) crawlListing(ctx context.Context, id int, hospitalName, dept, sub string, seenDoctors map[string]bool) error {
	for page := 1; page <= s.cfg.MaxDoctorPages; page++ {
		pageURL := s.listPageURL(id, dept, sub, page)
		resp, err := s.client.Get(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, fetch.ErrNotFound) {
				s.logger.Warn("list page fetch failed", "hospital_id", id, "page", page, "error", err)
			}
			return nil
		}

		targets, hasNext, err := s.parser.ParseDoctorList(resp.Body, pageURL)
		if err != nil {
			s.logger.Warn("list page parse failed", "hospital_id", id, "page", page, "error", err)
			return nil
		}
		if len(targets) == 0 {
			return nil
		}

		fresh := make([]model.Target, 0, len(targets))
		for _, t := range targets {
			if !seenDoctors[t.URL] {
				fresh = append(fresh, t)
			}
		}
		if err := s.savePending(fresh); err != nil {
			return err
		}

		for _, t := range fresh {
			if err := s.crawlDoctor(ctx, id, hospitalName, dept, sub, t, seenDoctors); err != nil {
				return err
			}
			if err := s.removePending(t.URL); err != nil {
				return err
			}
		}

		if !hasNext {
			return nil
		}
	}

	s.logger.Warn("page cap reached", "hospital_id", id, "dept", dept, "cap", s.cfg.MaxDoctorPages)
	return nil
}

// crawlDoctor fetches one detail page and persists the record. Fetch and
// parse failures skip the doctor; only context cancellation and output
// write errors propagate.
func (s *Spider) crawlDoctor(ctx context.Context, id int, hospitalName, dept, sub string, t model.Target, seenDoctors map[string]bool) error {
	if seenDoctors[t.URL] {
		return nil
	}

	resp, err := s.client.Get(ctx, t.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("doctor fetch failed", "url", t.URL, "error", err)
		return nil
	}

	d, err := s.parser.ParseDoctorDetail(resp.Body, t.URL)
	if err != nil {
		s.logger.Debug("doctor parse failed", "url", t.URL, "error", err)
		return nil
	}
	if d.Name == "" {
		s.logger.Debug("doctor page has no name", "url", t.URL)
		return nil
	}

	d.Hospital = hospitalName
	if d.Department == "" {
		d.Department = dept
	}
	if d.SubDepartment == "" {
		d.SubDepartment = sub
	}
	if d.AvatarURL == "" {
		d.AvatarURL = t.AvatarSrc
	}

	path := export.DoctorsCSVPath(s.cfg.OutDir, id, hospitalName)
	if err := export.AppendRow(path, model.DoctorCSVHeader, d.CSVRow()); err != nil {
		return err
	}
	seenDoctors[t.URL] = true
	s.doctorsSaved.Add(1)

	if s.db != nil {
		if err := s.db.UpsertDoctor(ctx, id, *d); err != nil {
			s.logger.Warn("database upsert failed", "url", t.URL, "error", err)
		}
	}

	s.logger.Debug("doctor saved", "hospital_id", id, "name", d.Name)
	return nil
}

// listPageURL builds a doctor-list URL for one department filter and
// page. Page one and empty filters stay out of the query string so the
// first request matches the plain listing URL.
func (s *Spider) listPageURL(id int, dept, sub string, page int) string {
	base := s.cfg.DoctorListURL(id)

	q := url.Values{}
	if dept != "" {
		q.Set("dept", dept)
	}
	if sub != "" {
		q.Set("sub", sub)
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

// hospitalSeen reports whether the hospital page URL is already in
// hospitals.csv.
func (s *Spider) hospitalSeen(pageURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seenHosp[pageURL]
}

// saveProgress writes the checkpoint under the write lock.
func (s *Spider) saveProgress(p checkpoint.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveProgress(p)
}

// saveDeptProgress checkpoints the department position. Concurrent runs
// checkpoint per hospital instead, so this is a no-op for them.
func (s *Spider) saveDeptProgress(id, deptIdx, subIdx int) error {
	if s.cfg.BatchSize > 1 {
		return nil
	}
	return s.saveProgress(checkpoint.Progress{
		HospitalRange:     s.cfg.Range(),
		CurrentHospitalID: id,
		MainDeptIndex:     deptIdx,
		SubDeptIndex:      subIdx,
	})
}

// savePending records targets still to crawl. Skipped for concurrent
// runs, which resume at hospital granularity.
func (s *Spider) savePending(targets []model.Target) error {
	if s.cfg.BatchSize > 1 || len(targets) == 0 {
		return nil
	}
	return s.store.SavePending(targets)
}

// removePending drops one finished target from the pending list.
func (s *Spider) removePending(url string) error {
	if s.cfg.BatchSize > 1 {
		return nil
	}
	return s.store.RemovePending(url)
}

// hospitalPause waits the configured pause between hospitals,
// returning early on context cancellation.
func (s *Spider) hospitalPause(ctx context.Context) error {
	if s.cfg.HospitalPause <= 0 {
		return nil
	}

	timer := time.NewTimer(s.cfg.HospitalPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

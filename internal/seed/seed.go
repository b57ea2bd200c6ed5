// Package seed fills the post slots with demo data. It is intended for
// development and testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartbarangay/internal/middleware"
	"smartbarangay/internal/models"
	"smartbarangay/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// legacyDateLayout is the browser locale format older clients stored in createdAt.
const legacyDateLayout = "1/2/2006, 03:04:05 PM"

// Options controls how much demo data is generated.
type Options struct {
	Citizens      int
	Reports       int
	Announcements int
	MaxDays       int
	// Seed makes runs reproducible; 0 picks a random seed.
	Seed int64
	// DryRun builds the posts without writing them.
	DryRun bool
	// Append keeps existing posts instead of replacing the slots.
	Append bool
}

// DefaultOptions is a small barangay with a week of activity.
func DefaultOptions() Options {
	return Options{Citizens: 8, Reports: 24, Announcements: 4, MaxDays: 7}
}

var incidents = []struct {
	category string
	risk     string
	template string
}{
	{"Flood", "High", "Flooding along %s, water is %s deep"},
	{"Fire", "Extreme", "Smoke and fire seen near %s, %s"},
	{"Road Hazard", "Medium", "Large pothole on %s, %s"},
	{"Noise", "Low", "Loud videoke past curfew at %s, %s"},
	{"Power Outage", "Medium", "Power out since this morning around %s, %s"},
	{"Crime", "High", "Suspicious persons loitering at %s, %s"},
	{"Waste", "Low", "Uncollected garbage piling up at %s, %s"},
}

var announcementTopics = []string{
	"Scheduled water interruption",
	"Free anti-rabies vaccination",
	"Clean-up drive this Saturday",
	"Road closure for the fiesta procession",
	"Curfew reminder for minors",
	"Typhoon preparedness briefing",
}

// Factory builds demo posts.
type Factory struct {
	faker *gofakeit.Faker
	opts  Options
	now   func() time.Time
	// nextReportID simulates ids issued by the reports API.
	nextReportID int64
}

// NewFactory creates a Factory with the given options.
func NewFactory(opts Options) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 7
	}
	return &Factory{
		faker:        gofakeit.New(opts.Seed),
		opts:         opts,
		now:          time.Now,
		nextReportID: 500,
	}
}

// BuildCitizenPost constructs a synced citizen report post for authorID.
func (f *Factory) BuildCitizenPost(authorID uint, authorName string) models.Post {
	incident := incidents[f.faker.Number(0, len(incidents)-1)]
	place := fmt.Sprintf("%s St", f.faker.Street())
	at := f.createdAt()

	f.nextReportID++
	reportID := f.nextReportID
	author := authorID

	post := models.Post{
		ID:           at.UnixMilli(),
		ReportID:     &reportID,
		AuthorKind:   models.AuthorCitizen,
		AuthorID:     &author,
		AuthorName:   authorName,
		Content:      fmt.Sprintf(incident.template, place, f.faker.HipsterSentence(4)),
		Location:     fmt.Sprintf("Purok %d", f.faker.Number(1, 7)),
		ContactPhone: f.faker.Numerify("09#########"),
		Category:     incident.category,
		RiskLevel:    incident.risk,
		IsUrgent:     models.IsUrgentRisk(incident.risk),
		CreatedAt:    f.formatCreatedAt(at),
	}
	return post
}

// BuildAnnouncement constructs an admin announcement.
func (f *Factory) BuildAnnouncement(adminID uint) models.Post {
	at := f.createdAt()
	author := adminID
	return models.Post{
		ID:           at.UnixMilli(),
		AuthorKind:   models.AuthorAdmin,
		AuthorID:     &author,
		AuthorName:   "Barangay Admin OFFICIAL",
		Content:      fmt.Sprintf("%s. %s", announcementTopics[f.faker.Number(0, len(announcementTopics)-1)], f.faker.Sentence(10)),
		Location:     "Admin Office",
		ContactPhone: "N/A",
		Category:     "General",
		RiskLevel:    "Medium",
		CreatedAt:    at.Format(time.RFC3339),
	}
}

// createdAt spreads posts over the last MaxDays.
func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now().Add(-back).Truncate(time.Second)
}

// formatCreatedAt writes roughly a third of the posts in the legacy locale
// format so the feed exercises both layouts.
func (f *Factory) formatCreatedAt(at time.Time) string {
	if f.faker.Number(0, 2) == 0 {
		return at.Local().Format(legacyDateLayout)
	}
	return at.Format(time.RFC3339)
}

// Result counts what a Run produced.
type Result struct {
	Citizen []models.Post
	Admin   []models.Post
}

// Run generates the configured posts and, unless DryRun is set, writes them
// to the slots of s.
func (f *Factory) Run(ctx context.Context, s *store.Store) (Result, error) {
	citizens := f.opts.Citizens
	if citizens <= 0 {
		citizens = 1
	}
	names := make([]string, citizens)
	for i := range names {
		names[i] = f.faker.FirstName()
	}

	var res Result
	for i := 0; i < f.opts.Reports; i++ {
		n := f.faker.Number(0, citizens-1)
		res.Citizen = append(res.Citizen, f.BuildCitizenPost(uint(100+n), names[n]))
	}
	for i := 0; i < f.opts.Announcements; i++ {
		res.Admin = append(res.Admin, f.BuildAnnouncement(1))
	}
	res.Citizen = dedupeIDs(res.Citizen)
	res.Admin = dedupeIDs(res.Admin)

	if f.opts.DryRun || s == nil {
		return res, nil
	}

	citizen, admin := res.Citizen, res.Admin
	if f.opts.Append {
		citizen = dedupeIDs(append(citizen, s.Load(ctx, models.SlotCitizen)...))
		admin = dedupeIDs(append(admin, s.Load(ctx, models.SlotAdmin)...))
	}
	if err := s.Save(ctx, models.SlotCitizen, citizen); err != nil {
		return Result{}, fmt.Errorf("save citizen posts: %w", err)
	}
	if err := s.Save(ctx, models.SlotAdmin, admin); err != nil {
		return Result{}, fmt.Errorf("save admin posts: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeded feed",
		slog.String("store", s.Backend()),
		slog.Int("citizen_posts", len(citizen)),
		slog.Int("admin_posts", len(admin)),
	)
	return res, nil
}

// Reset removes both post slots from s.
func Reset(ctx context.Context, s *store.Store) error {
	for _, slot := range []models.Slot{models.SlotCitizen, models.SlotAdmin} {
		if err := s.Clear(ctx, slot); err != nil {
			return fmt.Errorf("clear %s: %w", slot, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "cleared feed", slog.String("store", s.Backend()))
	return nil
}

// dedupeIDs bumps colliding ids so every post in a slot stays unique.
func dedupeIDs(posts []models.Post) []models.Post {
	seen := make(map[int64]struct{}, len(posts))
	for i := range posts {
		for {
			if _, dup := seen[posts[i].ID]; !dup {
				break
			}
			posts[i].ID++
		}
		seen[posts[i].ID] = struct{}{}
	}
	return posts
}

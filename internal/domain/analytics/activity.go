package analytics

import (
	"sort"
	"time"

	"github.com/okian/tenderdesk/internal/domain/model"
)

// Windows holds the lower bounds of the trailing activity windows. Every
// window ends at Now inclusive.
type Windows struct {
	Now   time.Time
	Today time.Time
	Week  time.Time
	Month time.Time
}

// WindowsAt computes the windows for now. Today starts at midnight of now's
// calendar day in now's location; week and month reach 7 and 30 days back
// from that midnight.
func WindowsAt(now time.Time) Windows {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return Windows{
		Now:   now,
		Today: today,
		Week:  today.AddDate(0, 0, -7),
		Month: today.AddDate(0, 0, -30),
	}
}

func within(at, from, to time.Time) bool {
	return !at.Before(from) && !at.After(to)
}

// ActivityCounts holds distinct active accounts per window.
type ActivityCounts struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

func countActivity(events []model.ActivityEvent, w Windows) ActivityCounts {
	today := make(map[string]struct{})
	week := make(map[string]struct{})
	month := make(map[string]struct{})
	for _, e := range events {
		switch {
		case within(e.At, w.Today, w.Now):
			today[e.AccountID] = struct{}{}
			fallthrough
		case within(e.At, w.Week, w.Now):
			week[e.AccountID] = struct{}{}
			fallthrough
		case within(e.At, w.Month, w.Now):
			month[e.AccountID] = struct{}{}
		}
	}
	return ActivityCounts{Today: len(today), Week: len(week), Month: len(month)}
}

// DayBucket holds the events of one UTC calendar day.
type DayBucket struct {
	Date   string                `json:"date"`
	Events []model.ActivityEvent `json:"events"`
}

// DayGrouping is the result of GroupByDay.
type DayGrouping struct {
	Days []DayBucket `json:"days"`
	// Skipped lists events that have no date to bucket by.
	Skipped []Skip `json:"skipped,omitempty"`
}

// GroupByDay buckets events by the UTC date of their timestamp, most recent
// day first. Events keep their input order inside a bucket. Events without a
// timestamp are listed in Skipped; events of excluded accounts are left out.
func GroupByDay(events []model.ActivityEvent, opts ...Option) DayGrouping {
	o := buildOptions(opts)
	idx := make(map[string]int)
	g := DayGrouping{Days: []DayBucket{}}
	for _, e := range events {
		if e.AccountID != "" && o.excludes(e.AccountID) {
			continue
		}
		if e.At.IsZero() {
			g.Skipped = append(g.Skipped, Skip{Kind: "event", ID: e.ID, Reason: "missing timestamp"})
			continue
		}
		day := e.At.UTC().Format("2006-01-02")
		i, ok := idx[day]
		if !ok {
			i = len(g.Days)
			idx[day] = i
			g.Days = append(g.Days, DayBucket{Date: day})
		}
		g.Days[i].Events = append(g.Days[i].Events, e)
	}
	sort.SliceStable(g.Days, func(i, j int) bool { return g.Days[i].Date > g.Days[j].Date })
	return g
}

package stats

import (
	"context"
	"sort"
	"time"

	"gatekeeper-bot/internal/storage"
)

// Aggregator derives approval statistics from the store. Snapshots are
// recomputed from the full event list on every call, never cached.
type Aggregator struct {
	store *storage.Store
	loc   *time.Location
	topN  int
}

const dailyDays = 7

func New(store *storage.Store, loc *time.Location, topN int) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if topN < 1 {
		topN = 1
	}
	return &Aggregator{store: store, loc: loc, topN: topN}
}

type Snapshot struct {
	Total     int
	Today     int
	ThisWeek  int
	ThisMonth int
	TopUsers  []UserCount
	Daily     []DayCount
}

type UserCount struct {
	Username string
	Count    int
}

type DayCount struct {
	Date  time.Time
	Count int
}

func (a *Aggregator) Snapshot(ctx context.Context, now time.Time) (Snapshot, error) {
	approvals, err := a.store.ListApprovals(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	now = now.In(a.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	weekStart := dayStart.AddDate(0, 0, -(dailyDays - 1))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.loc)

	snap := Snapshot{Total: len(approvals)}

	daily := make([]DayCount, dailyDays)
	dayIndex := make(map[string]int, dailyDays)
	for i := range daily {
		date := weekStart.AddDate(0, 0, i)
		daily[i] = DayCount{Date: date}
		dayIndex[date.Format("2006-01-02")] = i
	}

	counts := make(map[string]int)
	var order []string
	for _, approval := range approvals {
		ts := approval.ApprovedAt.In(a.loc)

		if inWindow(ts, dayStart, now) {
			snap.Today++
		}
		if inWindow(ts, weekStart, now) {
			snap.ThisWeek++
			if i, ok := dayIndex[ts.Format("2006-01-02")]; ok {
				daily[i].Count++
			}
		}
		if inWindow(ts, monthStart, now) {
			snap.ThisMonth++
		}

		if _, seen := counts[approval.Username]; !seen {
			order = append(order, approval.Username)
		}
		counts[approval.Username]++
	}

	// Ranking order is built from first appearance, so a stable sort by
	// count keeps the earlier-seen user ahead on ties.
	top := make([]UserCount, 0, len(order))
	for _, username := range order {
		top = append(top, UserCount{Username: username, Count: counts[username]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > a.topN {
		top = top[:a.topN]
	}
	snap.TopUsers = top
	snap.Daily = daily

	return snap, nil
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// Report summarizes the audit trail since a point in time.
type Report struct {
	Total   int
	ByLevel map[string]int
}

func (a *Aggregator) ActivityReport(ctx context.Context, since time.Time) (Report, error) {
	logs, err := a.store.ListAuditLogs(ctx, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int)}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
	}
	return report, nil
}

// Package queries contains read-only selectors over a habitat snapshot.
// Selectors never mutate state and return zero values for unknown ids.
package queries

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// Analytics windows.
const (
	HealthWindowDays     = 7
	EfficiencyWindowDays = 84
	SummaryWindowDays    = 7
	MinMoodLogsInsight   = 7
	MoodDoneThreshold    = 0.5
)

// SnapshotSource provides a deep copy of the current state.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// Analytics computes derived metrics at read time.
type Analytics struct {
	source SnapshotSource
	clock  func() time.Time
}

// NewAnalytics creates selectors over source. A nil clock uses time.Now.
func NewAnalytics(source SnapshotSource, clock func() time.Time) *Analytics {
	if clock == nil {
		clock = time.Now
	}
	return &Analytics{source: source, clock: clock}
}

func (a *Analytics) today() string {
	return domain.DayKey(a.clock())
}

// view is one snapshot with logs indexed by habit and day.
type view struct {
	snap   domain.Snapshot
	values map[string]map[string]float64
}

func (a *Analytics) view() view {
	snap := a.source.Snapshot()
	byHabit := make(map[string][]domain.HabitLog, len(snap.Habits))
	for _, l := range snap.HabitLogs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l)
	}
	values := make(map[string]map[string]float64, len(byHabit))
	for id, logs := range byHabit {
		values[id] = domain.IndexLogsByDay(logs)
	}
	return view{snap: snap, values: values}
}

func (v view) value(habitID, day string) (float64, bool) {
	val, ok := v.values[habitID][day]
	return val, ok
}

func (v view) percent(h domain.Habit, day string) float64 {
	val, _ := v.value(h.ID, day)
	return h.CompletionPercent(val)
}

// dayRate is the mean completion fraction of active habits scheduled on day.
func (v view) dayRate(day string) (rate float64, scheduled int) {
	sum := 0.0
	for _, h := range v.snap.ActiveHabits() {
		if !h.IsScheduledOn(day) {
			continue
		}
		scheduled++
		sum += v.percent(h, day)
	}
	if scheduled == 0 {
		return 0, 0
	}
	return sum / float64(scheduled), scheduled
}

func toPercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}

// Progress is a habit's value against its target on one day.
type Progress struct {
	Current float64
	Target  float64
	Percent int
}

// HabitProgress returns the habit's progress on date ("" for today).
func (a *Analytics) HabitProgress(habitID, date string) Progress {
	v := a.view()
	h, ok := v.snap.FindHabit(habitID)
	if !ok {
		return Progress{}
	}
	day := cmp.Or(date, a.today())
	current, _ := v.value(habitID, day)
	return Progress{
		Current: current,
		Target:  h.Target,
		Percent: toPercent(h.CompletionPercent(current)),
	}
}

// HabitHealth scores the last seven days, weighting recent days more.
// Today has weight 7, six days ago weight 1. With no scheduled day in the
// window the habit is fully healthy.
func (a *Analytics) HabitHealth(habitID string) int {
	v := a.view()
	h, ok := v.snap.FindHabit(habitID)
	if !ok {
		return 0
	}
	return a.healthOf(v, h, a.today())
}

func (a *Analytics) healthOf(v view, h domain.Habit, today string) int {
	var weighted, weights float64
	for daysAgo := range HealthWindowDays {
		day := domain.AddDays(today, -daysAgo)
		if !h.IsScheduledOn(day) {
			continue
		}
		w := float64(HealthWindowDays - daysAgo)
		weights += w
		weighted += w * v.percent(h, day)
	}
	if weights == 0 {
		return 100
	}
	return toPercent(weighted / weights)
}

// DayEfficiency is the completion rate for one weekday.
type DayEfficiency struct {
	Day   domain.Weekday
	Rate  int
	Slots int
}

// DayOfWeekEfficiency returns per-weekday completion rates over the last
// twelve weeks, Monday first.
func (a *Analytics) DayOfWeekEfficiency() []DayEfficiency {
	v := a.view()
	today := a.today()
	slots := make(map[domain.Weekday]int, 7)
	sums := make(map[domain.Weekday]float64, 7)
	active := v.snap.ActiveHabits()
	for daysAgo := range EfficiencyWindowDays {
		day := domain.AddDays(today, -daysAgo)
		wd := domain.WeekdayOfDay(day)
		for _, h := range active {
			if h.IsScheduledOn(day) {
				slots[wd]++
				sums[wd] += v.percent(h, day)
			}
		}
	}

	out := make([]DayEfficiency, 0, len(domain.AllWeekdays))
	for _, wd := range domain.AllWeekdays {
		e := DayEfficiency{Day: wd, Slots: slots[wd]}
		if e.Slots > 0 {
			e.Rate = toPercent(sums[wd] / float64(e.Slots))
		}
		out = append(out, e)
	}
	return out
}

// HourBucket counts logs recorded in one hour of the day.
type HourBucket struct {
	Hour  int
	Count int
}

// TimeOfDayPerformance counts every log by the hour it was recorded.
func (a *Analytics) TimeOfDayPerformance() []HourBucket {
	snap := a.source.Snapshot()
	out := make([]HourBucket, 24)
	for i := range out {
		out[i].Hour = i
	}
	for _, l := range snap.HabitLogs {
		out[l.CompletedAt.Hour()].Count++
	}
	return out
}

// MoodCorrelation pairs a day's mood with its completion rate.
type MoodCorrelation struct {
	Day            string
	Mood           int
	CompletionRate int
	Scheduled      int
}

// MoodCorrelationData returns one point per mood log, oldest first.
func (a *Analytics) MoodCorrelationData() []MoodCorrelation {
	v := a.view()
	moods := slices.Clone(v.snap.MoodLogs)
	slices.SortFunc(moods, func(x, y domain.MoodLog) int { return x.LoggedAt.Compare(y.LoggedAt) })

	out := make([]MoodCorrelation, 0, len(moods))
	for _, m := range moods {
		rate, scheduled := v.dayRate(m.Day())
		out = append(out, MoodCorrelation{
			Day:            m.Day(),
			Mood:           m.Score,
			CompletionRate: toPercent(rate),
			Scheduled:      scheduled,
		})
	}
	return out
}

// MoodInsight is the habit whose completion moves mood the most.
type MoodInsight struct {
	HabitID        string
	HabitName      string
	AverageWith    float64
	AverageWithout float64
	Difference     float64
	Message        string
}

// MoodHabitInsight compares average mood on days each active habit was done
// (at least half its target) against days it was not. It returns nil with
// fewer than seven mood logs, no active habit, or no difference.
func (a *Analytics) MoodHabitInsight() *MoodInsight {
	v := a.view()
	active := v.snap.ActiveHabits()
	if len(v.snap.MoodLogs) < MinMoodLogsInsight || len(active) == 0 {
		return nil
	}

	var best *MoodInsight
	for _, h := range active {
		var with, without []int
		for _, m := range v.snap.MoodLogs {
			val, _ := v.value(h.ID, m.Day())
			if h.CompletionRatio(val) >= MoodDoneThreshold {
				with = append(with, m.Score)
			} else {
				without = append(without, m.Score)
			}
		}
		if len(with) == 0 || len(without) == 0 {
			continue
		}
		avgWith, avgWithout := mean(with), mean(without)
		diff := avgWith - avgWithout
		if diff == 0 || (best != nil && math.Abs(diff) <= math.Abs(best.Difference)) {
			continue
		}
		best = &MoodInsight{
			HabitID:        h.ID,
			HabitName:      h.Name,
			AverageWith:    round1(avgWith),
			AverageWithout: round1(avgWithout),
			Difference:     diff,
		}
	}
	if best == nil {
		return nil
	}
	best.Difference = round1(best.Difference)
	if best.Difference > 0 {
		best.Message = fmt.Sprintf("Your mood is %.1f points higher on days you complete %s.", best.Difference, best.HabitName)
	} else {
		best.Message = fmt.Sprintf("Your mood is %.1f points lower on days you complete %s.", -best.Difference, best.HabitName)
	}
	return best
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ChainLink is one day of the paper chain.
type ChainLink struct {
	Day       string
	Rate      int
	Scheduled int
	Complete  bool
	Partial   bool
	Future    bool
}

// PaperChainData returns the chain for the last days days ending today, oldest first.
func (a *Analytics) PaperChainData(days int) []ChainLink {
	if days <= 0 {
		return []ChainLink{}
	}
	today := a.today()
	return a.PaperChainRange(domain.AddDays(today, -(days - 1)), today)
}

// PaperChainRange returns the chain for every day from..to inclusive. A
// day with nothing scheduled is complete unless it lies in the future.
func (a *Analytics) PaperChainRange(from, to string) []ChainLink {
	_, errFrom := domain.ParseDay(from, time.UTC)
	_, errTo := domain.ParseDay(to, time.UTC)
	n := domain.DaysBetween(from, to) + 1
	if errFrom != nil || errTo != nil || n <= 0 {
		return []ChainLink{}
	}
	v := a.view()
	today := a.today()

	out := make([]ChainLink, 0, n)
	for day := from; day <= to; day = domain.AddDays(day, 1) {
		link := ChainLink{Day: day, Future: day > today}
		rate, scheduled := v.dayRate(day)
		link.Scheduled = scheduled
		switch {
		case link.Future:
			link.Rate = toPercent(rate)
		case scheduled == 0:
			link.Rate, link.Complete = 100, true
		default:
			link.Rate = toPercent(rate)
			link.Complete = rate >= 1
			link.Partial = rate > 0 && rate < 1
		}
		out = append(out, link)
	}
	return out
}

// HabitCount names a habit with a count.
type HabitCount struct {
	HabitID string
	Name    string
	Count   int
}

// WeeklySummary aggregates the last seven days.
type WeeklySummary struct {
	From             string
	To               string
	TopHabit         *HabitCount
	CompletionRate   int
	MomentumDelta    float64
	AverageMood      *float64
	TotalCompletions int
}

// WeeklySummary summarizes the last seven days ending today.
func (a *Analytics) WeeklySummary() WeeklySummary {
	v := a.view()
	today := a.today()
	from := domain.AddDays(today, -(SummaryWindowDays - 1))
	inWindow := func(day string) bool { return day >= from && day <= today }

	summary := WeeklySummary{
		From:          from,
		To:            today,
		MomentumDelta: v.snap.Momentum.WeekDelta(),
	}

	active := v.snap.ActiveHabits()
	counts := make(map[string]int, len(active))
	for _, l := range v.snap.HabitLogs {
		if !inWindow(l.Day()) {
			continue
		}
		counts[l.HabitID]++
		if h, ok := v.snap.FindHabit(l.HabitID); ok && h.IsComplete(l.Value) {
			summary.TotalCompletions++
		}
	}
	for _, h := range active {
		if c := counts[h.ID]; c > 0 && (summary.TopHabit == nil || c > summary.TopHabit.Count) {
			summary.TopHabit = &HabitCount{HabitID: h.ID, Name: h.Name, Count: c}
		}
	}

	var sum float64
	var slots int
	for day := from; day <= today; day = domain.AddDays(day, 1) {
		for _, h := range active {
			if h.IsScheduledOn(day) {
				slots++
				sum += v.percent(h, day)
			}
		}
	}
	if slots > 0 {
		summary.CompletionRate = toPercent(sum / float64(slots))
	}

	var moods []int
	for _, m := range v.snap.MoodLogs {
		if inWindow(m.Day()) {
			moods = append(moods, m.Score)
		}
	}
	if len(moods) > 0 {
		avg := round1(mean(moods))
		summary.AverageMood = &avg
	}
	return summary
}

// HabitVolume is the total logged value of a habit.
type HabitVolume struct {
	HabitID  string
	Name     string
	Unit     string
	Total    float64
	Logs     int
	Archived bool // archived habits keep their lifetime volume
}

// TotalVolume sums logged values per habit, archived ones included, largest first.
func (a *Analytics) TotalVolume() []HabitVolume {
	v := a.view()
	out := make([]HabitVolume, 0, len(v.snap.Habits))
	for _, h := range v.snap.Habits {
		hv := HabitVolume{HabitID: h.ID, Name: h.Name, Unit: h.Unit, Archived: h.IsArchived}
		for _, val := range v.values[h.ID] {
			hv.Total += val
			hv.Logs++
		}
		out = append(out, hv)
	}
	slices.SortStableFunc(out, func(x, y HabitVolume) int { return cmp.Compare(y.Total, x.Total) })
	return out
}

// BestStreak returns the highest best streak across active habits.
func (a *Analytics) BestStreak() int {
	best := 0
	for _, h := range a.source.Snapshot().ActiveHabits() {
		best = max(best, h.BestStreak)
	}
	return best
}

// OverallStats is a one-screen account summary.
type OverallStats struct {
	TotalHabits      int
	ActiveHabits     int
	ArchivedHabits   int
	TotalLogs        int
	TotalCompletions int
	CurrentStreakMax int
	BestStreak       int
	Momentum         int
	AverageMood      *float64
}

// OverallStats summarizes the whole history.
func (a *Analytics) OverallStats() OverallStats {
	v := a.view()
	stats := OverallStats{
		TotalHabits: len(v.snap.Habits),
		TotalLogs:   len(v.snap.HabitLogs),
		Momentum:    v.snap.Momentum.Rounded(),
	}
	for _, h := range v.snap.Habits {
		if h.IsArchived {
			stats.ArchivedHabits++
			continue
		}
		stats.ActiveHabits++
		stats.CurrentStreakMax = max(stats.CurrentStreakMax, h.Streak)
		stats.BestStreak = max(stats.BestStreak, h.BestStreak)
	}
	for _, l := range v.snap.HabitLogs {
		if h, ok := v.snap.FindHabit(l.HabitID); ok && h.IsComplete(l.Value) {
			stats.TotalCompletions++
		}
	}
	if len(v.snap.MoodLogs) > 0 {
		scores := make([]int, len(v.snap.MoodLogs))
		for i, m := range v.snap.MoodLogs {
			scores[i] = m.Score
		}
		avg := round1(mean(scores))
		stats.AverageMood = &avg
	}
	return stats
}

// ActiveHabits returns the non-archived habits.
func (a *Analytics) ActiveHabits() []domain.Habit {
	return a.source.Snapshot().ActiveHabits()
}

// ScheduledHabits returns the active habits scheduled on date ("" for today).
func (a *Analytics) ScheduledHabits(date string) []domain.Habit {
	day := cmp.Or(date, a.today())
	active := a.source.Snapshot().ActiveHabits()
	return slices.DeleteFunc(active, func(h domain.Habit) bool { return !h.IsScheduledOn(day) })
}

// Package habit implements the "habitat habit" command group.
package habit

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/habitat/adapter/cli"
	"github.com/felixgeelhaar/habitat/internal/habits/application/queries"
	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// Cmd is the habit command group
var Cmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
	Long:  `Create, list, log completions, and manage your recurring habits.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(logCmd)
	Cmd.AddCommand(unlogCmd)
	Cmd.AddCommand(archiveCmd)
	Cmd.AddCommand(unarchiveCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(resetCmd)
	Cmd.AddCommand(shieldCmd)
	Cmd.AddCommand(categoryCmd)
}

// resolveID expands a full id or unique id prefix to a habit.
func resolveID(ctx context.Context, app *cli.App, ref string) (*queries.HabitDTO, error) {
	h, err := app.GetHabitHandler.Handle(ctx, queries.GetHabitQuery{HabitID: ref})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return h, nil
}

func resolveIDs(ctx context.Context, app *cli.App, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		h, err := resolveID(ctx, app, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// parseSchedule accepts "daily", "weekdays", "weekends" or a comma
// separated list of Mon..Sun.
func parseSchedule(s string) []domain.Weekday {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return domain.AllWeekdays
	case "weekdays":
		return domain.AllWeekdays[:5]
	case "weekends":
		return domain.AllWeekdays[5:]
	}
	var days []domain.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// Mon, mon and MONDAY all map to Mon.
		if len(part) >= 3 {
			part = strings.ToUpper(part[:1]) + strings.ToLower(part[1:3])
		}
		days = append(days, domain.Weekday(part))
	}
	return days
}

func formatSchedule(days []domain.Weekday) string {
	switch len(days) {
	case 7:
		return "daily"
	case 0:
		return "-"
	}
	tags := make([]string, len(days))
	for i, d := range days {
		tags[i] = string(d)
	}
	return strings.Join(tags, ",")
}

func formatTarget(h queries.HabitDTO) string {
	if h.Type == domain.HabitTypeSimple {
		return "done"
	}
	if h.Unit == "" {
		return fmt.Sprintf("%g", h.Target)
	}
	return fmt.Sprintf("%g %s", h.Target, h.Unit)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

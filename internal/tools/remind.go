package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ReminderSummary is a lightweight view of a scheduled reminder.
type ReminderSummary struct {
	ID   string
	Name string
	Kind string
}

// ReminderService is what the remind tool needs from the scheduler.
// Implemented by remind.Scheduler.
type ReminderService interface {
	Add(name, message, kind string, every time.Duration, cronExpr, tz string, at time.Time, channel, chatID string) (string, error)
	List() []ReminderSummary
	Remove(id string) bool
}

// NewRemindTool builds the remind definition. Delivery routing defaults to
// the request's channel and chat.
func NewRemindTool(svc ReminderService) *Definition {
	schema := NewSchema().
		String("action",
			Describe("Action to perform"),
			Enum("add", "list", "remove")).
		String("message", Describe("Reminder text (for add)"), Nullable()).
		Integer("every_seconds",
			Describe("Interval in seconds for recurring reminders"),
			Minimum(1),
			Nullable()).
		String("cron_expr", Describe("Cron expression like '0 9 * * *'"), Nullable()).
		String("tz", Describe("IANA timezone for cron expressions"), Nullable()).
		String("at", Describe("ISO datetime for a one-time reminder"), Nullable()).
		String("reminder_id", Describe("Reminder ID (for remove)"), Nullable()).
		MustBuild()

	return NewDefinition(
		DeriveName("RemindTool"),
		"Schedule reminders and recurring notifications. Actions: add, list, remove.",
		schema,
		func(_ context.Context, args map[string]any, req RequestContext) (string, error) {
			switch args["action"].(string) {
			case "add":
				return addReminder(svc, args, req), nil
			case "list":
				return listReminders(svc), nil
			case "remove":
				return removeReminder(svc, args), nil
			}
			return "", fmt.Errorf("unreachable action")
		},
	)
}

func addReminder(svc ReminderService, args map[string]any, req RequestContext) string {
	message, _ := args["message"].(string)
	if message == "" {
		return "Error: message is required for add"
	}

	channel := req.String(CtxChannel)
	chatID := req.String(CtxChatID)

	var kind string
	var every time.Duration
	var cronExpr, tz string
	var at time.Time

	if secs, ok := args["every_seconds"].(int64); ok && secs > 0 {
		kind = "every"
		every = time.Duration(secs) * time.Second
	} else if expr, ok := args["cron_expr"].(string); ok && expr != "" {
		kind = "cron"
		cronExpr = expr
		tz, _ = args["tz"].(string)
	} else if atStr, ok := args["at"].(string); ok && atStr != "" {
		dt, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			// Accept a local datetime without zone.
			dt, err = time.ParseInLocation("2006-01-02T15:04:05", atStr, time.Local)
			if err != nil {
				return fmt.Sprintf("Error: invalid 'at' datetime %q: %v", atStr, err)
			}
		}
		kind = "at"
		at = dt
	} else {
		return "Error: either every_seconds, cron_expr, or at is required"
	}

	name := message
	if len(name) > 30 {
		name = name[:30]
	}

	id, err := svc.Add(name, message, kind, every, cronExpr, tz, at, channel, chatID)
	if err != nil {
		return fmt.Sprintf("Error creating reminder: %v", err)
	}
	return fmt.Sprintf("Created reminder %q (id: %s)", name, id)
}

func listReminders(svc ReminderService) string {
	reminders := svc.List()
	if len(reminders) == 0 {
		return "No scheduled reminders."
	}
	var sb strings.Builder
	sb.WriteString("Scheduled reminders:\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("- %s (id: %s, %s)\n", r.Name, r.ID, r.Kind))
	}
	return sb.String()
}

func removeReminder(svc ReminderService, args map[string]any) string {
	id, _ := args["reminder_id"].(string)
	if id == "" {
		return "Error: reminder_id is required for remove"
	}
	if svc.Remove(id) {
		return fmt.Sprintf("Removed reminder %s", id)
	}
	return fmt.Sprintf("Reminder %s not found", id)
}

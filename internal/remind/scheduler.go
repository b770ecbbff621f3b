// Package remind schedules reminders created by voice commands and delivers
// them through the notification bus when they fire.
//
// Reminders persist as JSON so they survive restarts:
//
//	{ "version": 1, "reminders": [ { "id":"…", "name":"…", "message":"…",
//	    "kind":"every", "everyMs":…, "channel":"telegram", "chatId":"…",
//	    "lastFiredAtMs":…, "createdAtMs":… } ] }
package remind

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/voicebridge/voicebridge/internal/bus"
	"github.com/voicebridge/voicebridge/internal/tools"
)

// Reminder is one persisted reminder. Kind is "every", "cron", or "at";
// exactly one of EveryMs, Expr, or AtMs is meaningful per kind.
type Reminder struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Message       string  `json:"message"`
	Kind          string  `json:"kind"`
	EveryMs       *int64  `json:"everyMs,omitempty"`
	Expr          *string `json:"expr,omitempty"`
	TZ            *string `json:"tz,omitempty"`
	AtMs          *int64  `json:"atMs,omitempty"`
	Channel       string  `json:"channel,omitempty"`
	ChatID        string  `json:"chatId,omitempty"`
	LastFiredAtMs *int64  `json:"lastFiredAtMs,omitempty"`
	CreatedAtMs   int64   `json:"createdAtMs"`
}

type reminderStore struct {
	Version   int        `json:"version"`
	Reminders []Reminder `json:"reminders"`
}

// Scheduler arms timers for all persisted reminders and implements
// tools.ReminderService for the remind tool.
type Scheduler struct {
	storePath string
	bus       *bus.Bus
	log       *slog.Logger

	mu    sync.Mutex
	store reminderStore

	timers    map[string]*time.Timer
	robfig    *robfigcron.Cron
	robfigIDs map[string]robfigcron.EntryID
}

var cronParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// NewScheduler creates a Scheduler persisting to storePath
// (e.g. ~/.voicebridge/reminders.json). logger may be nil.
func NewScheduler(storePath string, b *bus.Bus, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		storePath: storePath,
		bus:       b,
		log:       logger,
		timers:    make(map[string]*time.Timer),
		robfig:    robfigcron.New(),
		robfigIDs: make(map[string]robfigcron.EntryID),
	}
}

// Start loads reminders from disk and arms all timers, then blocks until ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.log.Warn("remind: load failed, starting empty", "err", err)
	}
	s.pruneExpiredLocked()
	for _, r := range s.store.Reminders {
		s.armLocked(r)
	}
	count := len(s.store.Reminders)
	s.mu.Unlock()

	s.robfig.Start()
	s.log.Info("remind: started", "reminders", count)

	<-ctx.Done()

	<-s.robfig.Stop().Done()
	s.mu.Lock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.mu.Unlock()
	return ctx.Err()
}

// Add creates, persists, and arms a reminder. Implements
// tools.ReminderService.
func (s *Scheduler) Add(name, message, kind string, every time.Duration, cronExpr, tz string, at time.Time, channel, chatID string) (string, error) {
	r := Reminder{
		ID:          uuid.NewString()[:8],
		Name:        name,
		Message:     message,
		Kind:        kind,
		Channel:     channel,
		ChatID:      chatID,
		CreatedAtMs: time.Now().UnixMilli(),
	}

	switch kind {
	case "every":
		if every <= 0 {
			return "", fmt.Errorf("interval must be positive")
		}
		ms := every.Milliseconds()
		r.EveryMs = &ms
	case "cron":
		if _, err := cronParser.Parse(cronExpr); err != nil {
			return "", fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
		}
		r.Expr = &cronExpr
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
			}
			r.TZ = &tz
		}
	case "at":
		if !at.After(time.Now()) {
			return "", fmt.Errorf("reminder time %s is in the past", at.Format(time.RFC3339))
		}
		ms := at.UnixMilli()
		r.AtMs = &ms
	default:
		return "", fmt.Errorf("unknown schedule kind %q", kind)
	}

	s.mu.Lock()
	s.store.Reminders = append(s.store.Reminders, r)
	s.saveLocked()
	s.armLocked(r)
	s.mu.Unlock()

	s.log.Info("remind: added", "name", name, "id", r.ID, "kind", kind)
	return r.ID, nil
}

// List returns summaries of all reminders. Implements tools.ReminderService.
func (s *Scheduler) List() []tools.ReminderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tools.ReminderSummary, 0, len(s.store.Reminders))
	for _, r := range s.store.Reminders {
		out = append(out, tools.ReminderSummary{ID: r.ID, Name: r.Name, Kind: r.Kind})
	}
	return out
}

// Remove deletes a reminder and disarms it. Implements
// tools.ReminderService.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.store.Reminders)
	filtered := s.store.Reminders[:0]
	for _, r := range s.store.Reminders {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	s.store.Reminders = filtered
	if len(filtered) == before {
		return false
	}
	s.disarmLocked(id)
	s.saveLocked()
	return true
}

func (s *Scheduler) armLocked(r Reminder) {
	s.disarmLocked(r.ID)

	switch r.Kind {
	case "every":
		if r.EveryMs == nil || *r.EveryMs <= 0 {
			return
		}
		d := time.Duration(*r.EveryMs) * time.Millisecond
		s.timers[r.ID] = time.AfterFunc(d, func() {
			s.fire(r)
			s.mu.Lock()
			// Re-arm only if the reminder still exists.
			for _, cur := range s.store.Reminders {
				if cur.ID == r.ID {
					s.armLocked(cur)
					break
				}
			}
			s.mu.Unlock()
		})

	case "at":
		if r.AtMs == nil {
			return
		}
		delay := time.Until(time.UnixMilli(*r.AtMs))
		if delay < 0 {
			return
		}
		s.timers[r.ID] = time.AfterFunc(delay, func() {
			s.fire(r)
			s.Remove(r.ID) // one-shot
		})

	case "cron":
		if r.Expr == nil {
			return
		}
		sched, err := cronParser.Parse(*r.Expr)
		if err != nil {
			s.log.Warn("remind: invalid cron expression", "id", r.ID, "expr", *r.Expr, "err", err)
			return
		}
		loc := time.Local
		if r.TZ != nil && *r.TZ != "" {
			if l, err := time.LoadLocation(*r.TZ); err == nil {
				loc = l
			}
		}
		s.robfigIDs[r.ID] = s.robfig.Schedule(
			locSchedule{inner: sched, loc: loc},
			robfigcron.FuncJob(func() { s.fire(r) }),
		)
	}
}

func (s *Scheduler) disarmLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if eid, ok := s.robfigIDs[id]; ok {
		s.robfig.Remove(eid)
		delete(s.robfigIDs, id)
	}
}

// fire publishes the reminder to the notification bus and records the firing.
func (s *Scheduler) fire(r Reminder) {
	s.log.Info("remind: firing", "name", r.Name, "id", r.ID)

	ok := s.bus.Publish(bus.Notification{
		Channel: r.Channel,
		ChatID:  r.ChatID,
		Content: "Reminder: " + r.Message,
		Metadata: map[string]any{
			"reminder_id": r.ID,
			"kind":        r.Kind,
		},
	})
	if !ok {
		s.log.Warn("remind: notification bus full, reminder dropped", "id", r.ID)
	}

	now := time.Now().UnixMilli()
	s.mu.Lock()
	for i := range s.store.Reminders {
		if s.store.Reminders[i].ID == r.ID {
			s.store.Reminders[i].LastFiredAtMs = &now
			break
		}
	}
	s.saveLocked()
	s.mu.Unlock()
}

// pruneExpiredLocked drops one-shot reminders whose time already passed while
// the process was down.
func (s *Scheduler) pruneExpiredLocked() {
	now := time.Now().UnixMilli()
	filtered := s.store.Reminders[:0]
	for _, r := range s.store.Reminders {
		if r.Kind == "at" && r.AtMs != nil && *r.AtMs <= now {
			s.log.Info("remind: dropping expired reminder", "id", r.ID, "name", r.Name)
			continue
		}
		filtered = append(filtered, r)
	}
	s.store.Reminders = filtered
}

func (s *Scheduler) loadLocked() error {
	data, err := os.ReadFile(s.storePath)
	if os.IsNotExist(err) {
		s.store = reminderStore{Version: 1}
		return nil
	}
	if err != nil {
		return err
	}
	var st reminderStore
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	s.store = st
	return nil
}

func (s *Scheduler) saveLocked() {
	if err := os.MkdirAll(filepath.Dir(s.storePath), 0o755); err != nil {
		s.log.Warn("remind: mkdir failed", "err", err)
		return
	}
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		s.log.Warn("remind: marshal failed", "err", err)
		return
	}
	if err := os.WriteFile(s.storePath, data, 0o644); err != nil {
		s.log.Warn("remind: write failed", "err", err)
	}
}

// locSchedule pins a cron schedule to a location.
type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}

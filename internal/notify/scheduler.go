// Package notify is the notification side-effect trigger: vote reminders are
// scheduled and cancelled by opaque id, fire-and-forget.
package notify

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler schedules and cancels vote reminders. Scheduling is idempotent
// by id: re-scheduling replaces any pending reminder for that id.
type Scheduler interface {
	ScheduleVoteReminder(id, title string)
	CancelVoteReminder(id string)
}

// ReminderKey composes the per-user, per-proposal reminder id.
func ReminderKey(uid, proposalID string) string {
	return uid + ":" + proposalID
}

// SplitReminderKey undoes ReminderKey.
func SplitReminderKey(id string) (uid, proposalID string) {
	uid, proposalID, _ = strings.Cut(id, ":")
	return uid, proposalID
}

// FireFunc delivers a reminder that has come due.
type FireFunc func(id, title string)

// LocalScheduler keeps pending reminders as in-process timers. What happens
// when a reminder fires is up to the injected FireFunc.
type LocalScheduler struct {
	delay time.Duration
	fire  FireFunc
	log   *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewLocalScheduler(delay time.Duration, fire FireFunc, log *zap.Logger) *LocalScheduler {
	return &LocalScheduler{
		delay:  delay,
		fire:   fire,
		log:    log,
		timers: map[string]*time.Timer{},
	}
}

func (s *LocalScheduler) ScheduleVoteReminder(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		// A timer that expired just before a re-schedule or cancel no
		// longer owns the map entry; it must not deliver or untrack the
		// replacement.
		if s.timers[id] != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()
		s.fire(id, title)
	})
	s.timers[id] = t
	s.log.Debug("vote reminder scheduled", zap.String("id", id))
}

func (s *LocalScheduler) CancelVoteReminder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
		s.log.Debug("vote reminder cancelled", zap.String("id", id))
	}
}

// Pending reports whether a reminder is still armed for id.
func (s *LocalScheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// PendingCount returns the number of armed reminders.
func (s *LocalScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every pending timer.
func (s *LocalScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

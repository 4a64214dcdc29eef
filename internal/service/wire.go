package service

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/notify-fanout/config"
	"github.com/d60-Lab/notify-fanout/internal/access"
	"github.com/d60-Lab/notify-fanout/internal/repository"
)

// Services 一个进程内共享的全部服务
type Services struct {
	Dispatcher       *Dispatcher
	Fanout           *FanoutWorker
	StaleThreads     *StaleThreadDetector
	ResumeNudges     *ResumeNudger
	MeetingReminders *MeetingReminderScanner
	Inbox            InboxService
	Directory        *Directory
}

// Build wires repositories and services over db. cache may be nil.
// handoff decides what happens to events the sweeps publish; nil means
// dispatch inline.
func Build(db *gorm.DB, checker access.Checker, cache *redis.Client, cfg *config.Config, processorID string, handoff func(*Dispatcher) Handoff) *Services {
	events := repository.NewEventRepository(db)
	threads := repository.NewThreadRepository(db)
	notifications := repository.NewNotificationRepository(db)
	prefs := NewPreferenceResolver(repository.NewPreferenceRepository(db))
	dir := NewDirectory(repository.NewDirectoryRepository(db), cache, cfg.Redis.TTL)

	checker = access.NewRateLimited(checker, cfg.Fanout.AccessCheckRPS, cfg.Fanout.AccessCheckConcurrency)
	dispatcher := NewDispatcher(DispatcherDeps{
		Events:        events,
		Threads:       threads,
		Meetings:      repository.NewMeetingRepository(db),
		Members:       repository.NewMembershipRepository(db),
		Emails:        repository.NewEmailQueueRepository(db),
		Notifications: notifications,
		Preferences:   prefs,
		Recipients:    NewRecipientResolver(repository.NewMembershipRepository(db), checker, cfg.Fanout.AccessCheckConcurrency),
		Directory:     dir,
	})

	h := DirectHandoff(dispatcher)
	if handoff != nil {
		h = handoff(dispatcher)
	}
	publisher := NewPublisher(events)

	return &Services{
		Dispatcher:       dispatcher,
		Fanout:           NewFanoutWorker(events, dispatcher, cfg.Fanout, processorID),
		StaleThreads:     NewStaleThreadDetector(threads, prefs, publisher, h, cfg.StaleThread.Threshold, cfg.StaleThread.DryRun),
		ResumeNudges:     NewResumeNudger(repository.NewResumeRepository(db), publisher, h, cfg.ResumeNudge.Tiers),
		MeetingReminders: NewMeetingReminderScanner(repository.NewMeetingRepository(db), publisher, h, cfg.MeetingReminder.MinutesBefore, cfg.MeetingReminder.DryRun),
		Inbox:            NewInboxService(notifications),
		Directory:        dir,
	}
}

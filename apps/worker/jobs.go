package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/dig"
	"go.uber.org/multierr"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/services/metrics"
)

const (
	jobAlerts    = "alerts"
	jobReminders = "reminders"
	jobPurge     = "purge"
)

type jobsParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Metrics       *metrics.Metrics
	Churches      *church.Service
	Notifications *notification.Service
	Goals         *goal.Service
	Agenda        *agenda.Service
	Senders       map[string]messaging.Sender
}

// jobs holds the periodic tasks. Each task walks the active churches one after the other.
type jobs struct {
	conf          *core.Config
	logger        core.Logger
	metrics       *metrics.Metrics
	churches      *church.Service
	notifications *notification.Service
	goals         *goal.Service
	agenda        *agenda.Service
	senders       map[string]messaging.Sender
}

func newJobs(p jobsParams) *jobs {
	return &jobs{
		conf:          p.Conf,
		logger:        p.Logger,
		metrics:       p.Metrics,
		churches:      p.Churches,
		notifications: p.Notifications,
		goals:         p.Goals,
		agenda:        p.Agenda,
		senders:       p.Senders,
	}
}

// register schedules every job on c. Jobs started by c get ctx.
func (j *jobs) register(ctx context.Context, c *cron.Cron) error {
	schedules := []struct {
		spec string
		name string
		fn   func(context.Context) error
	}{
		{j.conf.Worker.AlertsSchedule, jobAlerts, j.deliverAlerts},
		{j.conf.Worker.RemindersSchedule, jobReminders, j.sendReminders},
		{j.conf.Worker.PurgeSchedule, jobPurge, j.purgeNotifications},
	}
	for _, s := range schedules {
		if _, err := c.AddFunc(s.spec, j.wrap(ctx, s.name, s.fn)); err != nil {
			return errors.Wrapf(err, "scheduling %s job (%q)", s.name, s.spec)
		}
	}
	return nil
}

// wrap returns a cron func running fn with metrics and logging.
func (j *jobs) wrap(ctx context.Context, name string, fn func(context.Context) error) func() {
	return func() {
		start := time.Now()
		err := fn(ctx)
		j.metrics.ObserveJob(name, start, err)
		if err != nil {
			j.logger.Error(fmt.Sprintf("job %s failed", name), err)
			return
		}
		j.logger.Debug(fmt.Sprintf("job %s done in %s", name, time.Since(start)))
	}
}

// forEachChurch calls fn for every active church. A failing church does not stop the others.
func (j *jobs) forEachChurch(ctx context.Context, fn func(context.Context, church.Church) error) error {
	churches, err := j.churches.QueryActive(ctx)
	if err != nil {
		return errors.Wrap(err, "querying churches")
	}
	var errs error
	for _, ch := range churches {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		if err := fn(ctx, ch); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "church %s", ch.ID))
		}
	}
	return errs
}

// deliverAlerts creates the daily alert notifications and closes goals past their end date.
func (j *jobs) deliverAlerts(ctx context.Context) error {
	return j.forEachChurch(ctx, func(ctx context.Context, ch church.Church) error {
		n, err := j.notifications.Deliver(ctx, ch.ID)
		j.metrics.Notifications.Add(float64(n))
		if err != nil {
			return errors.Wrap(err, "delivering alerts")
		}
		if _, err = j.goals.ExpireOverdue(ctx, ch.ID); err != nil {
			return errors.Wrap(err, "expiring goals")
		}
		return nil
	})
}

// sendReminders sends the agenda reminders that are due.
// Reminders without an address for their channel are marked sent so they are not retried.
func (j *jobs) sendReminders(ctx context.Context) error {
	return j.forEachChurch(ctx, func(ctx context.Context, ch church.Church) error {
		due, err := j.agenda.DueReminders(ctx, ch.ID)
		if err != nil {
			return errors.Wrap(err, "querying reminders")
		}
		var errs error
		for _, r := range due {
			msg := reminderMessage(r)
			sender, ok := j.senders[msg.Channel]
			if !ok {
				errs = multierr.Append(errs, errors.Errorf("reminder %s: unknown channel %q", r.ID, msg.Channel))
				continue
			}
			err := sender.Send(ctx, msg)
			switch {
			case err == nil:
				j.metrics.MessagesSent.WithLabelValues(msg.Channel).Inc()
			case errors.Is(err, messaging.ErrNoAddress):
				j.logger.Warn(fmt.Sprintf("reminder %s: %s has no %s address", r.ID, r.PersonName, msg.Channel))
			default:
				errs = multierr.Append(errs, errors.Wrapf(err, "sending reminder %s", r.ID))
				continue
			}
			if err = j.agenda.MarkReminderSent(ctx, r.ID); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "marking reminder %s", r.ID))
			}
		}
		return errs
	})
}

func reminderMessage(r agenda.DueReminder) messaging.Message {
	channel := r.Channel
	if channel == "" {
		channel = messaging.ChannelWhatsApp
	}
	rcpt := messaging.Recipient{Name: r.PersonName, Mobile: r.Mobile, Email: r.Email}
	msg := messaging.Message{
		Channel: channel,
		Name:    r.PersonName,
		To:      rcpt.Address(channel),
		Subject: "Lembrete: " + r.Title,
		Content: fmt.Sprintf("Olá %s! Lembrete: %s em %s", core.FirstName(r.PersonName), r.Title, r.StartsAt.Format("02/01/2006 15:04")),
	}
	if r.Location != "" {
		msg.Content += " (" + r.Location + ")"
	}
	return msg
}

func (j *jobs) purgeNotifications(ctx context.Context) error {
	n, err := j.notifications.Purge(ctx, j.conf.Worker.PurgeAfterDays)
	if err != nil {
		return errors.Wrap(err, "purging notifications")
	}
	j.logger.Info(fmt.Sprintf("purged %d read notifications", n))
	return nil
}

// Package reminder periodically scans for pending tasks approaching their due
// date and mails their owners. Failures are logged and never affect API
// traffic.
package reminder

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/repository"
	"github.com/morabagipravin/task-manager-api/internal/utils/email"
)

const dueWindow = 24 * time.Hour

// Notifier runs the due-date reminder scan.
type Notifier struct {
	repo   *repository.Repository
	sender *email.Sender
	log    *logrus.Logger
}

// NewNotifier initializes a new reminder notifier
func NewNotifier(repo *repository.Repository, sender *email.Sender, log *logrus.Logger) *Notifier {
	return &Notifier{repo: repo, sender: sender, log: log}
}

// Run executes one reminder sweep. Intended as a cron callback.
func (n *Notifier) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	due, err := n.repo.DueTasksBetween(ctx, now, now.Add(dueWindow))
	if err != nil {
		n.log.Errorf("Reminder scan failed: %v", err)
		return
	}

	for _, task := range due {
		if err := n.sender.SendDueReminder(task.Email, task.Username, task.Title, task.DueDate); err != nil {
			n.log.Errorf("Failed to send reminder for task %d: %v", task.TaskID, err)
		}
	}
	if len(due) > 0 {
		n.log.Infof("Reminder scan completed: %d task(s) due within %s", len(due), dueWindow)
	}
}

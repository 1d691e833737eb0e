package alert

import (
	"context"
	"errors"
	"fmt"
)

// maxListedPosts caps how many posts chat notifiers list.
const maxListedPosts = 5

// ViralPost is a ranked post the engine scored as high viral potential.
type ViralPost struct {
	Rank         int     `json:"rank"`
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	URL          string  `json:"url"`
	Likes        string  `json:"likes"`
	Comments     string  `json:"comments"`
	Score        float64 `json:"score"`
	QualityScore float64 `json:"quality_score"`
}

// Notification is the data sent to alert destinations.
type Notification struct {
	Category    string      `json:"category"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Posts       []ViralPost `json:"posts"`
	GeneratedAt string      `json:"generated_at"`
}

func (n *Notification) listed() []ViralPost {
	return n.Posts[:min(maxListedPosts, len(n.Posts))]
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

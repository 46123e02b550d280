package flow

import (
	"github.com/gen2brain/beeep"

	"github.com/yildizm/snapzoo/internal/logger"
)

// Notifier announces finished cycles outside the terminal
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends desktop notifications. Delivery happens in the
// background so the chat loop never waits on the notification daemon.
type DesktopNotifier struct {
	send func(title, message string, icon any) error
	log  *logger.Logger
}

// NewDesktopNotifier creates a notifier backed by the platform daemon
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{send: beeep.Notify, log: logger.New("notify")}
}

// Notify implements Notifier
func (n *DesktopNotifier) Notify(title, message string) error {
	go func() {
		if err := n.send(title, message, ""); err != nil {
			n.log.Warn("desktop notification failed", logger.Error(err))
		}
	}()
	return nil
}

package flow

import (
	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/logger"
)

// Factory builds capture surfaces wired to the controller
type Factory struct {
	sink      capture.Sink
	maxBytes  int64
	maxPixels int64
}

func newFactory(sink capture.Sink, maxBytes, maxPixels int64) *Factory {
	return &Factory{sink: sink, maxBytes: maxBytes, maxPixels: maxPixels}
}

// NewSurface creates a surface for identity id
func (f *Factory) NewSurface(id capture.Identity) *capture.Surface {
	return capture.NewSurface(id, f.sink,
		capture.WithMaxBytes(f.maxBytes),
		capture.WithMaxPixels(f.maxPixels))
}

// StartNewCycle opens a fresh capture surface below the existing history.
// Anything still pending from the previous cycle is abandoned.
func (c *Controller) StartNewCycle() capture.Identity {
	c.cancelScope()
	if removed := c.log.RemoveLoading(); removed > 0 {
		c.logger.Debug("removed stale loading entries", logger.Count(removed))
	}
	c.app.IsAnalyzing = false
	c.app.CurrentLoadingEntryID = ""
	c.liveActionID = ""

	c.app.UploadCount++
	id := capture.NewIdentity(c.app.UploadCount)
	c.openCycle(id)
	return id
}

// openCycle installs a surface for id and appends its picker entry
func (c *Controller) openCycle(id capture.Identity) {
	previous := c.surface
	c.surface = c.factory.NewSurface(id)
	c.app.ActiveCycle = id
	if previous != nil {
		previous.Retire()
	}

	c.highlighted = false
	c.state = StateIdle
	c.notice = msgPicker
	c.log.Append(conversation.KindSent, conversation.Content{
		Text:          msgPicker,
		Picker:        true,
		CaptureAreaID: id.CaptureAreaID,
	}, id.Sequence)

	c.logger.Info("cycle opened", logger.F("cycle", id.Sequence), logger.F("input", id.CaptureInputID))
	c.emit()
}

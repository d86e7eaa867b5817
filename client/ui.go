package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"

	"carthedge/core"
	"carthedge/ratchet"
)

// InitGui initializes the gocui screen
func (app *ChatApp) InitGui() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("failed to initialize gocui: %w", err)
	}
	app.Gui = g
	g.SetManagerFunc(app.layout)

	return nil
}

// statusFor renders err through the core error/gate vocabulary SPEC_FULL.md
// §2.1 establishes, instead of a bare Go error string, so the terminal
// surfaces the same taxonomy core/errors.go defines rather than inventing
// its own UI-level wording.
func statusFor(err error) string {
	switch {
	case err == nil:
		return ""
	case core.IsGateBlocked(err):
		return err.Error()
	case errors.Is(err, core.ErrRatchetLocked):
		return "ratchet locked: force_recover required"
	case errors.Is(err, core.ErrForcedRecovery):
		return "forced recovery required: epoch desync detected"
	case errors.Is(err, core.ErrReplayDetected):
		return "replay detected, message dropped"
	case errors.Is(err, core.ErrSkippedStoreError):
		return "skipped-key store exhausted"
	case errors.Is(err, core.ErrInvalidEnvelope):
		return "invalid envelope"
	default:
		return err.Error()
	}
}

// PromptRecipientID prompts for recipient ID and sets the chat layout
func (app *ChatApp) PromptRecipientID() error {
	if err := app.Gui.SetKeybinding("prompt", gocui.KeyEnter, gocui.ModNone, func(g *gocui.Gui, v *gocui.View) error {
		app.recipientID = strings.TrimSpace(v.Buffer())
		if app.recipientID == "" {
			return nil
		}
		g.DeleteView("prompt")
		g.SetManagerFunc(app.layout)
		g.SetCurrentView("input")

		if err := app.Gui.SetKeybinding("input", gocui.KeyEnter, gocui.ModNone, app.SendMessageHandler); err != nil {
			logger.Fatalf("Error setting keybinding for input: %v", err)
		}

		if err := app.connectToWebSocket(); err != nil {
			logger.Fatalf("Error connecting to WebSocket server: %v", err)
		}

		return nil
	}); err != nil {
		return err
	}
	return nil
}

// UpdateMessages updates the message view
func (app *ChatApp) UpdateMessages(g *gocui.Gui) error {
	v, err := g.View("messages")
	if err != nil {
		return err
	}
	v.Clear()
	for _, msg := range app.messages {
		fmt.Fprintln(v, msg)
	}
	return nil
}

// SendMessageHandler handles sending messages on Enter press
func (app *ChatApp) SendMessageHandler(g *gocui.Gui, v *gocui.View) error {
	message := strings.TrimSpace(v.Buffer())
	if message != "" {
		if err := app.sendMessage(message); err != nil {
			status := statusFor(err)
			logger.Errorf("sending message: %s", status)
			app.messages = append(app.messages, "[system] "+status)
		} else {
			app.messages = append(app.messages, "[You] "+message)
		}

		v.Clear()
		v.SetCursor(0, 0)
		app.UpdateMessages(g)
	}
	return nil
}

// ratchetStatusLabel renders the pairwise ratchet's Running/Locked status
// tag (ratchet/state.go) for the chat window title, so a locked session
// (ratchet_recover pending) is visible without reading the logs.
func ratchetStatusLabel(s *ratchet.State) string {
	if s == nil {
		return "no session yet"
	}
	if s.Status == ratchet.Locked {
		return "locked"
	}
	return "running"
}

// Layout function for the UI
func (app *ChatApp) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if app.recipientID == "" {
		if v, err := g.SetView("prompt", maxX/4, maxY/4, 3*maxX/4, maxY/2); err != nil {
			if !errors.Is(err, gocui.ErrUnknownView) {
				return err
			}
			v.Title = "Enter recipient ID"
			v.Editable = true
			v.Wrap = true
			g.SetCurrentView("prompt")
		}
		return nil
	}

	if v, err := g.SetView("messages", 0, 0, maxX-1, maxY-5); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = fmt.Sprintf("Chat with %s [%s]", app.recipientID, ratchetStatusLabel(app.ratchetState))
		v.Autoscroll = true
		v.Wrap = true
		app.UpdateMessages(g)
	}

	if v, err := g.SetView("input", 0, maxY-4, maxX-1, maxY-2); err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = "Type a message"
		v.Editable = true
		v.Wrap = true
		g.SetCurrentView("input")
	}

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, app.quit); err != nil {
		return err
	}

	return nil
}

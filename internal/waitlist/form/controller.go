// Package form drives the waitlist dialog: it holds what the user typed,
// submits it once per click and resets itself a few seconds after success.
//
// A Controller is safe for concurrent use. Observers registered with
// Subscribe are called with a snapshot after every change, outside the lock.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"pocketly/internal/i18n"
	"pocketly/pkg/email"
)

// ResetDelay is how long the success message stays before the form clears.
const ResetDelay = 3 * time.Second

// State is a snapshot of the form.
type State struct {
	Email      string
	Open       bool
	Submitting bool
	Success    bool
	Error      string
}

// Phase names the submission lifecycle position of s.
func (s State) Phase() string {
	switch {
	case s.Submitting:
		return "submitting"
	case s.Success:
		return "success"
	case s.Error != "":
		return "error"
	default:
		return "idle"
	}
}

type Controller struct {
	transport  Transport
	scheduler  Scheduler
	lang       i18n.Lang
	resetDelay time.Duration

	mu        sync.Mutex
	state     State
	session   uint64
	reset     Task
	observers []func(State)
}

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithMessageLanguage picks the language of client-side error messages.
func WithMessageLanguage(lang i18n.Lang) Option {
	return func(c *Controller) {
		c.lang = lang
	}
}

func New(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport:  transport,
		scheduler:  SystemScheduler,
		lang:       i18n.DefaultLang,
		resetDelay: ResetDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every new state.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Open shows the dialog. Opening an already open dialog keeps its session.
func (c *Controller) Open() {
	c.update(func(s *State) bool {
		if s.Open {
			return false
		}
		c.session++
		s.Open = true
		return true
	})
}

// SetEmail replaces the typed address and clears a displayed error.
func (c *Controller) SetEmail(value string) {
	c.update(func(s *State) bool {
		s.Email = value
		s.Error = ""
		return true
	})
}

// Validate reports whether the typed address looks deliverable. It is
// advisory: Submit sends whatever was typed and the server decides.
func (c *Controller) Validate() bool {
	return email.IsValid(c.State().Email)
}

// Submit posts the typed address and moves the form to success or error.
// While a submission is in flight it returns ErrSubmitInFlight, and once the
// session has succeeded it returns ErrAlreadySubscribed; neither sends
// anything. If the dialog is dismissed before the answer arrives the answer
// is dropped and the form is left untouched.
func (c *Controller) Submit(ctx context.Context) error {
	var (
		session uint64
		address string
	)
	var refused error
	c.update(func(s *State) bool {
		switch {
		case s.Submitting:
			refused = ErrSubmitInFlight
			return false
		case s.Success:
			refused = ErrAlreadySubscribed
			return false
		}
		session = c.session
		address = s.Email
		s.Error = ""
		s.Submitting = true
		return true
	})
	if refused != nil {
		return refused
	}

	resp, err := c.transport.PostSubscription(ctx, address)
	outcome := c.interpret(resp, err)

	c.update(func(s *State) bool {
		if c.session != session {
			return false
		}
		s.Submitting = false
		if outcome != nil {
			s.Error = outcome.Error()
			return true
		}
		s.Success = true
		s.Error = ""
		c.scheduleReset(session)
		return true
	})
	return outcome
}

// Dismiss closes the dialog and ends its session: a pending reset is
// cancelled and any in-flight answer will be ignored. The request itself is
// not cancelled.
func (c *Controller) Dismiss() {
	c.update(func(s *State) bool {
		if c.reset != nil {
			c.reset.Stop()
			c.reset = nil
		}
		c.session++
		*s = State{}
		return true
	})
}

// scheduleReset must be called with c.mu held.
func (c *Controller) scheduleReset(session uint64) {
	if c.reset != nil {
		c.reset.Stop()
	}
	c.reset = c.scheduler.AfterFunc(c.resetDelay, func() {
		c.update(func(s *State) bool {
			if c.session != session {
				return false
			}
			c.reset = nil
			c.session++
			*s = State{}
			return true
		})
	})
}

func (c *Controller) interpret(resp *Response, err error) error {
	if err != nil {
		return &NetworkError{Message: i18n.T(c.lang, i18n.NetworkFailure), Err: err}
	}

	var decoded any
	if jsonErr := json.Unmarshal(resp.Body, &decoded); jsonErr != nil {
		return &NetworkError{Message: i18n.T(c.lang, i18n.NetworkFailure), Err: jsonErr}
	}
	if resp.Status >= 200 && resp.Status < 300 {
		return nil
	}

	message := i18n.T(c.lang, i18n.GenericFailure)
	body, _ := decoded.(map[string]any)
	if v, ok := body["details"].(string); ok && v != "" {
		message = v
	}
	if v, ok := body["error"].(string); ok && v != "" {
		message = v
	}
	return &RequestError{Status: resp.Status, Message: message}
}

// update applies fn under the lock and notifies observers when fn reports a change.
func (c *Controller) update(fn func(*State) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	snapshot := c.state
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, observe := range observers {
		observe(snapshot)
	}
}

// IsNetworkError reports whether err came from a failed or unreadable response.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

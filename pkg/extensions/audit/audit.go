// Package audit records every check of sensitive actions, including the ones
// sysadmins pass.
//
// Its chained functions are marked CheckSysadmins so they run for sysadmins too. A
// sysadmin is then allowed directly, which keeps the usual bypass while still
// leaving a record.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/plugins"
)

// Name is the plugin name used in the plugin list
const Name = "audit"

// DefaultActions are audited when New is given no actions
var DefaultActions = []string{
	"package_delete",
	"group_delete",
	"organization_delete",
	"user_delete",
	"member_delete",
}

// Event is one audited authorization check
type Event struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	User     string    `json:"user"`
	Sysadmin bool      `json:"sysadmin"`
	Allowed  bool      `json:"allowed"`
	Reason   string    `json:"reason,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Plugin is the audit extension
type Plugin struct {
	actions []string
	limit   int
	log     *logrus.Logger

	mu     sync.Mutex
	events []Event
}

// New creates the plugin keeping at most limit events in memory
func New(log *logrus.Logger, limit int, actions ...string) *Plugin {
	if log == nil {
		log = logrus.New()
	}
	if limit <= 0 {
		limit = 1000
	}
	if len(actions) == 0 {
		actions = DefaultActions
	}
	return &Plugin{actions: actions, limit: limit, log: log}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Interfaces() []plugins.Declaration {
	return plugins.Implements(plugins.IAuthFunctions)
}

// AuthFunctions chains every audited action
func (p *Plugin) AuthFunctions() map[string]*auth.Handler {
	functions := make(map[string]*auth.Handler, len(p.actions))
	for _, action := range p.actions {
		functions[action] = auth.Chain(p.record(auth.NormalizeAction(action)), auth.CheckSysadmins())
	}
	return functions
}

func (p *Plugin) record(action string) auth.ChainedFunc {
	return func(ctx context.Context, next auth.Func, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		user, err := auth.ContextUser(ctx, c)
		if err != nil {
			return auth.Result{}, err
		}

		ev := Event{Time: time.Now().UTC(), Action: action, User: c.User}
		var res auth.Result
		if user != nil && user.Sysadmin {
			ev.Sysadmin = true
			res = auth.Allow()
		} else {
			res, err = next(ctx, c, data)
		}

		ev.Allowed = err == nil && res.Success
		ev.Reason = res.Msg
		if err != nil {
			ev.Error = err.Error()
		}
		p.append(ev)

		p.log.WithFields(logrus.Fields{
			"action":   ev.Action,
			"user":     ev.User,
			"sysadmin": ev.Sysadmin,
			"allowed":  ev.Allowed,
		}).Info("Audited authorization check")

		return res, err
	}
}

func (p *Plugin) append(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
	if over := len(p.events) - p.limit; over > 0 {
		p.events = append([]Event(nil), p.events[over:]...)
	}
}

// Events returns the recorded events, oldest first
func (p *Plugin) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

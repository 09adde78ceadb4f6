package presence

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	intotel "github.com/imtaco/livecast/internal/otel"
)

type conn struct {
	endpoint Endpoint
	binding  Binding
}

type room struct {
	broadcaster string
	// viewers in join order
	viewers []string
}

func (r *room) empty() bool {
	return r.broadcaster == "" && len(r.viewers) == 0
}

// effect is a side effect computed under the lock and run after it is released.
type effect func()

// Registry is the process-wide authority on who is connected and which session
// they are bound to. A single mutex guards all state.
//
// Every transition takes a ticket while it holds the lock. Its effects run only
// after the effects of all earlier tickets, so notices and hooks are observed
// in the same order as the transitions that caused them.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*conn
	rooms  map[string]*room
	fenced map[string]struct{}
	hooks  Hooks
	issued uint64
	logger *log.Logger

	fxMu   sync.Mutex
	fxCond *sync.Cond
	ran    uint64
}

func NewRegistry(logger *log.Logger) *Registry {
	r := &Registry{
		conns:  make(map[string]*conn),
		rooms:  make(map[string]*room),
		fenced: make(map[string]struct{}),
		logger: logger,
	}
	r.fxCond = sync.NewCond(&r.fxMu)
	return r
}

// SetHooks installs the broadcaster slot observer. Call it before serving traffic.
func (r *Registry) SetHooks(h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = h
}

// ticket must be called with mu held.
func (r *Registry) ticket() uint64 {
	r.issued++
	return r.issued
}

// run waits for the effects of every earlier ticket, then runs its own.
func (r *Registry) run(t uint64, effects []effect) {
	r.fxMu.Lock()
	for r.ran != t-1 {
		r.fxCond.Wait()
	}
	r.fxMu.Unlock()

	defer func() {
		r.fxMu.Lock()
		r.ran = t
		r.fxMu.Unlock()
		r.fxCond.Broadcast()
	}()
	for _, e := range effects {
		e()
	}
}

func (r *Registry) notify(connID string, ep Endpoint, method string, payload any) effect {
	return func() {
		if err := ep.Notify(method, payload); err != nil {
			notifyErrors.Add(context.Background(), 1)
			r.logger.Debug("notify failed",
				log.ConnID(connID),
				log.String("method", method),
				log.Error(err))
		}
	}
}

func roleAttr(k Kind) metric.AddOption {
	return metric.WithAttributes(attribute.String(intotel.AttrRole, k.String()))
}

func (r *Registry) Register(connID string, ep Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; ok {
		return errors.Newf(errors.ErrConflict, "connection %s already registered", connID)
	}
	r.conns[connID] = &conn{endpoint: ep}
	connections.Add(context.Background(), 1)
	return nil
}

// Unregister leaves whatever the connection was bound to and forgets it.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	effects := r.leaveLocked(connID, c)
	delete(r.conns, connID)
	t := r.ticket()
	r.mu.Unlock()

	connections.Add(context.Background(), -1)
	r.run(t, effects)
}

// Join binds connID to sessionID, first leaving any other binding it has.
func (r *Registry) Join(connID, sessionID string, kind Kind) error {
	if kind != Broadcaster && kind != Viewer {
		return errors.Newf(errors.ErrValidation, "cannot join as %s", kind)
	}
	if sessionID == "" {
		return errors.New(errors.ErrValidation, "session id is required")
	}

	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return errors.Newf(errors.ErrNotFound, "connection %s not registered", connID)
	}
	if _, ok := r.fenced[sessionID]; ok {
		r.mu.Unlock()
		joinsFenced.Add(context.Background(), 1)
		return errors.Newf(errors.ErrPrecondition, "session %s is closed", sessionID)
	}
	if c.binding == (Binding{Kind: kind, SessionID: sessionID}) {
		r.mu.Unlock()
		return nil
	}
	if kind == Broadcaster {
		if rm, ok := r.rooms[sessionID]; ok && rm.broadcaster != "" && rm.broadcaster != connID {
			r.mu.Unlock()
			joinConflicts.Add(context.Background(), 1)
			return errors.Newf(errors.ErrConflict, "session %s already has a broadcaster", sessionID)
		}
	}

	effects := r.leaveLocked(connID, c)

	rm, ok := r.rooms[sessionID]
	if !ok {
		rm = &room{}
		r.rooms[sessionID] = rm
	}
	c.binding = Binding{Kind: kind, SessionID: sessionID}

	switch kind {
	case Broadcaster:
		rm.broadcaster = connID
		for _, viewerID := range rm.viewers {
			effects = append(effects, r.notify(connID, c.endpoint,
				constants.EventViewerJoined, ViewerPayload{ViewerConnectionID: viewerID}))
		}
		if h := r.hooks; h != nil {
			effects = append(effects, func() { h.OnBroadcasterJoined(sessionID) })
		}
	case Viewer:
		rm.viewers = append(rm.viewers, connID)
		if rm.broadcaster != "" {
			b := r.conns[rm.broadcaster]
			effects = append(effects, r.notify(rm.broadcaster, b.endpoint,
				constants.EventViewerJoined, ViewerPayload{ViewerConnectionID: connID}))
		}
	}
	t := r.ticket()
	r.mu.Unlock()

	joins.Add(context.Background(), 1, roleAttr(kind))
	r.logger.Debug("joined",
		log.ConnID(connID),
		log.SessionID(sessionID),
		log.Stringer("role", kind))
	r.run(t, effects)
	return nil
}

// Leave removes the connection's binding and returns what it was.
func (r *Registry) Leave(connID string) Binding {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return Binding{}
	}
	prev := c.binding
	effects := r.leaveLocked(connID, c)
	t := r.ticket()
	r.mu.Unlock()

	r.run(t, effects)
	return prev
}

func (r *Registry) leaveLocked(connID string, c *conn) []effect {
	prev := c.binding
	if !prev.Bound() {
		return nil
	}
	c.binding = Binding{}
	leaves.Add(context.Background(), 1, roleAttr(prev.Kind))

	rm, ok := r.rooms[prev.SessionID]
	if !ok {
		return nil
	}

	var effects []effect
	switch prev.Kind {
	case Broadcaster:
		rm.broadcaster = ""
		for _, viewerID := range rm.viewers {
			v := r.conns[viewerID]
			effects = append(effects, r.notify(viewerID, v.endpoint,
				constants.EventBroadcasterDisconnected, struct{}{}))
		}
		if h := r.hooks; h != nil {
			sessionID := prev.SessionID
			effects = append(effects, func() { h.OnBroadcasterLost(sessionID) })
		}
	case Viewer:
		rm.viewers = slices.DeleteFunc(rm.viewers, func(id string) bool { return id == connID })
		if rm.broadcaster != "" {
			b := r.conns[rm.broadcaster]
			effects = append(effects, r.notify(rm.broadcaster, b.endpoint,
				constants.EventViewerLeft, ViewerPayload{ViewerConnectionID: connID}))
		}
	}
	if rm.empty() {
		delete(r.rooms, prev.SessionID)
	}
	return effects
}

// Resolve lists the connections bound to sessionID with the given role.
func (r *Registry) Resolve(sessionID string, kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[sessionID]
	if !ok {
		return nil
	}
	switch kind {
	case Broadcaster:
		if rm.broadcaster == "" {
			return nil
		}
		return []string{rm.broadcaster}
	case Viewer:
		return slices.Clone(rm.viewers)
	}
	return nil
}

// Broadcasting reports whether sessionID has a broadcaster bound right now.
func (r *Registry) Broadcasting(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[sessionID]
	return ok && rm.broadcaster != ""
}

func (r *Registry) Lookup(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return Binding{}, false
	}
	return c.binding, true
}

// Deliver sends to one connection. It reports false when the connection is gone
// or the send failed.
func (r *Registry) Deliver(connID, method string, payload any) bool {
	r.mu.Lock()
	c, ok := r.conns[connID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if err := c.endpoint.Notify(method, payload); err != nil {
		notifyErrors.Add(context.Background(), 1)
		r.logger.Debug("deliver failed",
			log.ConnID(connID),
			log.String("method", method),
			log.Error(err))
		return false
	}
	return true
}

// AnnounceIdle sends to every connection that is not bound to a session.
func (r *Registry) AnnounceIdle(method string, payload any) int {
	r.mu.Lock()
	var effects []effect
	for id, c := range r.conns {
		if !c.binding.Bound() {
			effects = append(effects, r.notify(id, c.endpoint, method, payload))
		}
	}
	t := r.ticket()
	r.mu.Unlock()

	r.run(t, effects)
	return len(effects)
}

// CloseRoom notifies every member of sessionID, unbinds them and fences the
// session so later joins fail. Eviction does not count as a broadcaster loss.
func (r *Registry) CloseRoom(sessionID, method string, payload any) int {
	return r.evict(sessionID, method, payload, true)
}

// EvictRoom is CloseRoom without the fence. The session stays joinable.
func (r *Registry) EvictRoom(sessionID, method string, payload any) int {
	return r.evict(sessionID, method, payload, false)
}

func (r *Registry) evict(sessionID, method string, payload any, fence bool) int {
	r.mu.Lock()
	if fence {
		r.fenced[sessionID] = struct{}{}
	}
	rm, ok := r.rooms[sessionID]
	if !ok {
		r.mu.Unlock()
		return 0
	}
	delete(r.rooms, sessionID)

	members := slices.Clone(rm.viewers)
	if rm.broadcaster != "" {
		members = append([]string{rm.broadcaster}, members...)
	}
	effects := make([]effect, 0, len(members))
	for _, id := range members {
		c := r.conns[id]
		c.binding = Binding{}
		effects = append(effects, r.notify(id, c.endpoint, method, payload))
	}
	t := r.ticket()
	r.mu.Unlock()

	if fence {
		roomsClosed.Add(context.Background(), 1)
	}
	r.logger.Debug("room evicted",
		log.SessionID(sessionID),
		log.Bool("fenced", fence),
		log.Int("members", len(members)))
	r.run(t, effects)
	return len(members)
}

func (r *Registry) Fenced(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.fenced[sessionID]
	return ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

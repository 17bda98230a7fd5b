package physics

// EventPool is a free list of candidate events scoped to one step. Acquire
// hands out a cleared event; ReleaseAll returns every event at once when the
// step ends. Events must not be kept past ReleaseAll.
type EventPool struct {
	events []*CollisionEvent
	used   int
}

// Acquire returns a reset event bound to ball.
func (p *EventPool) Acquire(ball *Ball) *CollisionEvent {
	if p.used == len(p.events) {
		p.events = append(p.events, &CollisionEvent{})
	}
	ev := p.events[p.used]
	p.used++
	ev.Reset(ball)
	return ev
}

// ReleaseAll makes every event available again.
func (p *EventPool) ReleaseAll() {
	p.used = 0
}

// InUse reports how many events are currently handed out.
func (p *EventPool) InUse() int {
	return p.used
}

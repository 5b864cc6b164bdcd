package phrase

// Listener receives change notifications from a StepPhrase. Calls happen
// synchronously inside the mutating method, in subscription order. A listener
// must not mutate the phrase that is notifying it.
type Listener interface {
	OnLengthChange(p *StepPhrase, length int)
	OnPositionChange(p *StepPhrase, position int)
	OnResolutionChange(p *StepPhrase, r Resolution)
	OnTriggerDataChange(t *Trigger, kind ChangeKind)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped.
type ListenerFuncs struct {
	Length      func(p *StepPhrase, length int)
	Position    func(p *StepPhrase, position int)
	Resolution  func(p *StepPhrase, r Resolution)
	TriggerData func(t *Trigger, kind ChangeKind)
}

func (f ListenerFuncs) OnLengthChange(p *StepPhrase, length int) {
	if f.Length != nil {
		f.Length(p, length)
	}
}

func (f ListenerFuncs) OnPositionChange(p *StepPhrase, position int) {
	if f.Position != nil {
		f.Position(p, position)
	}
}

func (f ListenerFuncs) OnResolutionChange(p *StepPhrase, r Resolution) {
	if f.Resolution != nil {
		f.Resolution(p, r)
	}
}

func (f ListenerFuncs) OnTriggerDataChange(t *Trigger, kind ChangeKind) {
	if f.TriggerData != nil {
		f.TriggerData(t, kind)
	}
}

// Subscription identifies a registered listener
type Subscription int

type subscriber struct {
	id Subscription
	l  Listener
}

// listeners is an ordered subscriber list
type listeners struct {
	next Subscription
	subs []subscriber
}

func (ls *listeners) add(l Listener) Subscription {
	ls.next++
	ls.subs = append(ls.subs, subscriber{id: ls.next, l: l})
	return ls.next
}

func (ls *listeners) remove(id Subscription) bool {
	for i, s := range ls.subs {
		if s.id == id {
			ls.subs = append(ls.subs[:i], ls.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (ls *listeners) each(fn func(Listener)) {
	for _, s := range ls.subs {
		fn(s.l)
	}
}

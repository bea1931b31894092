// Copyright (c) 2025 The por-se Authors
//
// File: independence.go
// Brief: The commutativity relation used by alternative computation
//
// License: BSD-3-Clause

// Package conflict computes immediate conflicts and the alternative event
// j used by the sleep-set-free Optimal-DPOR-style enumeration (spec.md
// §4.4), built on top of the independence relation of spec.md §4.2.
package conflict

import (
	"github.com/por-se/por-se-sub001/event"
)

// Independent reports whether a and b commute: true means the two events
// can be reordered without changing the resulting configuration's
// behaviour, so the enumeration never needs to consider both orders.
func Independent(a, b *event.Event) bool {
	if a.Tid().Equal(b.Tid()) {
		return false
	}

	if a.Kind() == event.Local || b.Kind() == event.Local {
		return true
	}

	if a.Kind() == event.ProgramInit || b.Kind() == event.ProgramInit {
		return false
	}

	if dependentThreadEvents(a, b) {
		return false
	}

	if a.Kind().IsLockEvent() && b.Kind().IsLockEvent() {
		return a.LockID() != b.LockID()
	}
	// wait1/wait2 also sit on a lock chain.
	if onLockChain(a.Kind()) && onLockChain(b.Kind()) {
		return a.LockID() != b.LockID()
	}

	if dependentCondEvents(a, b) {
		return false
	}

	return true
}

func onLockChain(k event.Kind) bool {
	return k.IsLockEvent() || k == event.Wait1 || k == event.Wait2
}

// dependentThreadEvents implements "Thread events: dependent when they
// name each other": thread_create<->thread_init of the spawn it created,
// thread_exit<->thread_join(me), thread_join(me)<->thread_join(me).
func dependentThreadEvents(a, b *event.Event) bool {
	threadPair := func(x, y *event.Event) bool {
		if x.Kind() == event.ThreadCreate && y.Kind() == event.ThreadInit {
			creator, ok := y.ThreadInitCreator()
			return ok && creator == x.ID()
		}
		if x.Kind() == event.ThreadExit && y.Kind() == event.ThreadJoin {
			exit, ok := y.ThreadJoinExit()
			return ok && exit == x.ID()
		}
		return false
	}
	if threadPair(a, b) || threadPair(b, a) {
		return true
	}
	if a.Kind() == event.ThreadJoin && b.Kind() == event.ThreadJoin {
		ea, oka := a.ThreadJoinExit()
		eb, okb := b.ThreadJoinExit()
		return oka && okb && ea == eb
	}
	return false
}

// dependentCondEvents implements the condition-variable dependency rules
// of spec.md §4.2: lost notifications/waits on the same cv not in [self],
// a notifying signal/broadcast against the wait1/wait2 it wakes and other
// notifications on the same cv, and cv_create/cv_destroy against any other
// event on the same cv.
func dependentCondEvents(a, b *event.Event) bool {
	aCond, aHas := condIDOf(a)
	bCond, bHas := condIDOf(b)
	if !aHas || !bHas || aCond != bCond {
		return false
	}

	// cv_create/cv_destroy are dependent with any other event on the cv.
	if a.Kind() == event.CondCreate || a.Kind() == event.CondDestroy ||
		b.Kind() == event.CondCreate || b.Kind() == event.CondDestroy {
		return true
	}

	// A notifying signal/broadcast is dependent with the wait1/wait2 it
	// targets and with other notifications on the same cv; independent
	// from a wait2 on a different cv (already excluded by aCond!=bCond
	// above) and from unrelated local bookkeeping.
	if isNotification(a.Kind()) || isNotification(b.Kind()) {
		return true
	}

	// Two wait1/wait2 on the same cv are always ordered by which
	// notification woke them, so treat them as dependent too (their
	// commuting would change which waiter wakes first).
	return true
}

func isNotification(k event.Kind) bool {
	return k == event.Signal || k == event.Broadcast
}

func condIDOf(e *event.Event) (event.CondId, bool) {
	if e.Kind().IsCondEvent() {
		return e.CondID(), true
	}
	return event.NoCond, false
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

// ChangeFunc receives the full row list after a mutation. It runs on the
// mutating goroutine while the Controller lock is held, so it must not call
// back into the Controller.
type ChangeFunc func(rows RowList)

// Notifier forwards row lists to the owner's callback.
type Notifier struct {
	fn    ChangeFunc
	count uint64
}

// NewNotifier wraps fn. A nil fn is allowed; notifications are then only counted.
func NewNotifier(fn ChangeFunc) *Notifier {
	return &Notifier{fn: fn}
}

// Notify delivers a copy of rows. No-op mutations are delivered too.
func (n *Notifier) Notify(rows RowList) {
	n.count++
	if n.fn != nil {
		n.fn(rows.Clone())
	}
}

// Count returns how many notifications have been sent.
func (n *Notifier) Count() uint64 {
	return n.count
}

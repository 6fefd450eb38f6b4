// Package validation implements the authoritative change validation core:
// ReferenceValidator, AuthValidator, RulesValidator and the ValidatorResult
// value they all produce.
package validation

import (
	"github.com/irrdcore/rpslvalidate/internal/orderedset"
	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// ValidatorResult accumulates the outcome of validating one ChangeRequest:
// error and info messages, the maintainers to notify, and whether override
// authorisation was used. Empty ErrorMessages means the change may proceed.
type ValidatorResult struct {
	errors       *orderedset.Set
	infos        *orderedset.Set
	notify       []rpsl.Mntner
	notifySeen   map[rpsl.MntnerKey]bool
	usedOverride bool
}

// NewValidatorResult returns an empty, valid result.
func NewValidatorResult() *ValidatorResult {
	return &ValidatorResult{
		errors:     orderedset.New(),
		infos:      orderedset.New(),
		notifySeen: make(map[rpsl.MntnerKey]bool),
	}
}

// IsValid reports whether the change may proceed: no error messages.
func (r *ValidatorResult) IsValid() bool {
	return r.errors.Len() == 0
}

// AddError records a human-readable failure. Duplicates (by exact string)
// are collapsed, preserving first-insertion order.
func (r *ValidatorResult) AddError(msg string) {
	r.errors.Add(msg)
}

// AddInfo records a human-readable informational message.
func (r *ValidatorResult) AddInfo(msg string) {
	r.infos.Add(msg)
}

// ErrorMessages returns the accumulated error messages in insertion order.
func (r *ValidatorResult) ErrorMessages() []string { return r.errors.Values() }

// InfoMessages returns the accumulated info messages in insertion order.
func (r *ValidatorResult) InfoMessages() []string { return r.infos.Values() }

// SetNotify replaces the notify list with mntners, deduplicating by
// (pk, source) while preserving the order given.
func (r *ValidatorResult) SetNotify(mntners []rpsl.Mntner) {
	r.notify = nil
	r.notifySeen = make(map[rpsl.MntnerKey]bool)
	for _, m := range mntners {
		r.addNotify(m)
	}
}

func (r *ValidatorResult) addNotify(m rpsl.Mntner) {
	key := rpsl.MntnerKey{PK: m.PK(), Source: m.Source()}
	if r.notifySeen[key] {
		return
	}
	r.notifySeen[key] = true
	r.notify = append(r.notify, m)
}

// Notify returns the maintainers whose registered contacts should be
// notified of the change.
func (r *ValidatorResult) Notify() []rpsl.Mntner { return r.notify }

// MarkOverrideUsed records that override authorisation was used for this
// change.
func (r *ValidatorResult) MarkOverrideUsed() { r.usedOverride = true }

// UsedOverride reports whether override authorisation was used.
func (r *ValidatorResult) UsedOverride() bool { return r.usedOverride }

// Merge folds other's errors, infos, notify list and override flag into r,
// preserving r's existing insertion order and appending other's new
// entries after it.
func (r *ValidatorResult) Merge(other *ValidatorResult) {
	if other == nil {
		return
	}
	for _, e := range other.ErrorMessages() {
		r.AddError(e)
	}
	for _, i := range other.InfoMessages() {
		r.AddInfo(i)
	}
	for _, m := range other.Notify() {
		r.addNotify(m)
	}
	if other.UsedOverride() {
		r.MarkOverrideUsed()
	}
}

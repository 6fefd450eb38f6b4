package store

import (
	"context"
	"net/netip"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// MemoryStore is an in-memory ObjectStore/AuthSession fake used by
// validator unit tests, so they never depend on a live database.
type MemoryStore struct {
	Objects         []ObjectRow
	Suspended       []ObjectRow
	Migrated        map[rpsl.MntnerKey]bool
	APITokensByMntr map[rpsl.MntnerKey][]APIToken
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Migrated:        make(map[rpsl.MntnerKey]bool),
		APITokensByMntr: make(map[rpsl.MntnerKey][]APIToken),
	}
}

func (m *MemoryStore) FindObjects(_ context.Context, q ObjectQuery) ([]ObjectRow, error) {
	return filterRows(m.Objects, q), nil
}

func (m *MemoryStore) FindSuspended(_ context.Context, q ObjectQuery) ([]ObjectRow, error) {
	return filterRows(m.Suspended, q), nil
}

func (m *MemoryStore) FindReferencingObjects(_ context.Context, source string, referrers []rpsl.InboundReferrer, targetPK string) ([]ObjectRow, error) {
	var out []ObjectRow
	for _, r := range m.Objects {
		if r.Source != source {
			continue
		}
		for _, ref := range referrers {
			if r.Class != ref.Class {
				continue
			}
			if containsStr(r.Attributes[ref.Attribute], targetPK) {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) IsMigratedMntner(_ context.Context, key rpsl.MntnerKey) (bool, error) {
	return m.Migrated[key], nil
}

func (m *MemoryStore) ResolveAPIKeyForMntner(_ context.Context, key rpsl.MntnerKey, candidateKeys []string, origin rpsl.Origin, remoteIP netip.Addr) (bool, error) {
	for _, tok := range m.APITokensByMntr[key] {
		for _, candidate := range candidateKeys {
			if candidate == tok.Token && (tok.ValidFor == nil || tok.ValidFor(origin, remoteIP)) {
				return true, nil
			}
		}
	}
	return false, nil
}

func filterRows(rows []ObjectRow, q ObjectQuery) []ObjectRow {
	var out []ObjectRow
	for _, r := range rows {
		if len(q.Sources) > 0 && !containsStr(q.Sources, r.Source) {
			continue
		}
		if len(q.Classes) > 0 && !containsClass(q.Classes, r.Class) {
			continue
		}
		if len(q.PKs) > 0 && !containsStr(q.PKs, r.PK) {
			continue
		}
		if q.ExactPrefix.IsValid() {
			p, err := netip.ParsePrefix(r.PK)
			if err != nil || p != q.ExactPrefix {
				continue
			}
		}
		if q.LessSpecificOf.IsValid() {
			p, err := netip.ParsePrefix(r.PK)
			if err != nil || p != q.LessSpecificOf {
				continue
			}
		}
		out = append(out, r)
		if q.FirstOnly {
			break
		}
	}
	return out
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsClass(list []rpsl.ObjectClass, v rpsl.ObjectClass) bool {
	for _, c := range list {
		if c == v {
			return true
		}
	}
	return false
}

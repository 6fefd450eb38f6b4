package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

// RulesValidator enforces object-class-specific business rules not
// covered by reference resolution or authentication: suspended-PK
// collisions and maintainer-migration consistency. One instance is
// scoped to a single submission batch.
type RulesValidator struct {
	objStore store.ObjectStore
	authSess store.AuthSession
	logger   *slog.Logger

	suspendedChecked map[rpsl.MntnerKey]*ValidatorResult
	migrationChecked map[rpsl.MntnerKey]*ValidatorResult
}

// NewRulesValidator constructs a RulesValidator.
func NewRulesValidator(objStore store.ObjectStore, authSess store.AuthSession, logger *slog.Logger) *RulesValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RulesValidator{
		objStore:         objStore,
		authSess:         authSess,
		logger:           logger,
		suspendedChecked: make(map[rpsl.MntnerKey]*ValidatorResult),
		migrationChecked: make(map[rpsl.MntnerKey]*ValidatorResult),
	}
}

// Check runs both rules applicable to req and returns their combined
// result.
func (rv *RulesValidator) Check(ctx context.Context, req rpsl.ChangeRequest) (*ValidatorResult, error) {
	result := NewValidatorResult()

	if req.Type == rpsl.Create && rpsl.IsMntnerClass(req.New.Class()) {
		suspended, err := rv.checkSuspendedCollision(ctx, req.New)
		if err != nil {
			return nil, err
		}
		result.Merge(suspended)
	}

	if rpsl.IsMntnerClass(req.New.Class()) && req.Type != rpsl.Delete {
		mntner, ok := req.New.(rpsl.Mntner)
		if ok {
			migration, err := rv.checkMigrationConsistency(ctx, mntner)
			if err != nil {
				return nil, err
			}
			result.Merge(migration)
		}
	}

	return result, nil
}

// checkSuspendedCollision rejects creating a maintainer whose PK already
// exists in the suspended-objects view for the same source.
func (rv *RulesValidator) checkSuspendedCollision(ctx context.Context, obj rpsl.Object) (*ValidatorResult, error) {
	key := rpsl.MntnerKey{PK: obj.PK(), Source: obj.Source()}
	if cached, ok := rv.suspendedChecked[key]; ok {
		return cached, nil
	}

	rows, err := rv.objStore.FindSuspended(ctx, store.ObjectQuery{
		Sources:   []string{obj.Source()},
		Classes:   []rpsl.ObjectClass{rpsl.ClassMntner},
		PKs:       []string{obj.PK()},
		FirstOnly: true,
	})
	if err != nil {
		return nil, err
	}

	result := NewValidatorResult()
	if len(rows) > 0 {
		result.AddError(fmt.Sprintf("mntner %s collides with a suspended maintainer of the same PK in %s", obj.PK(), obj.Source()))
	}
	rv.suspendedChecked[key] = result
	return result, nil
}

// checkMigrationConsistency requires the internal-auth sentinel in
// auth: iff the maintainer is linked in the internal auth tables.
func (rv *RulesValidator) checkMigrationConsistency(ctx context.Context, mntner rpsl.Mntner) (*ValidatorResult, error) {
	key := rpsl.MntnerKey{PK: mntner.PK(), Source: mntner.Source()}
	if cached, ok := rv.migrationChecked[key]; ok {
		return cached, nil
	}

	migrated, err := rv.authSess.IsMigratedMntner(ctx, key)
	if err != nil {
		return nil, err
	}

	result := NewValidatorResult()
	hasSentinel := mntner.HasInternalAuth()
	switch {
	case migrated && !hasSentinel:
		result.AddError(fmt.Sprintf(
			"mntner %s is linked to an internal user account and must carry the %q auth: sentinel", mntner.PK(), rpsl.InternalAuthSentinel,
		))
	case !migrated && hasSentinel:
		result.AddError(fmt.Sprintf(
			"mntner %s is not linked to an internal user account and must not carry the %q auth: sentinel", mntner.PK(), rpsl.InternalAuthSentinel,
		))
	}
	rv.migrationChecked[key] = result
	return result, nil
}

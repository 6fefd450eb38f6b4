package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/irrdcore/rpslvalidate/internal/authcrypt"
	"github.com/irrdcore/rpslvalidate/internal/cache"
	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/store"
)

// AuthConfig is the configuration surface AuthValidator consumes:
// the override secret's hash, whether route creation authenticates a
// covering parent, and the per-set-class auth mode.
type AuthConfig struct {
	OverridePasswordHash             string
	AuthenticateParentsRouteCreation bool
	SetAuthModes                     map[rpsl.ObjectClass]rpsl.SetAuthMode
}

// AuthValidator decides, per object, whether the submitter is authorised
// and which maintainers should be notified. One instance is scoped to a
// single submission batch.
type AuthValidator struct {
	objStore store.ObjectStore
	authSess store.AuthSession
	cfg      AuthConfig
	logger   *slog.Logger

	mntnerCache  *cache.MntnerCache
	relatedCache *cache.RelatedObjectCache
	preApproved  map[rpsl.MntnerKey]bool
}

// NewAuthValidator constructs an AuthValidator over objStore/authSess.
func NewAuthValidator(objStore store.ObjectStore, authSess store.AuthSession, cfg AuthConfig, logger *slog.Logger) *AuthValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthValidator{
		objStore:     objStore,
		authSess:     authSess,
		cfg:          cfg,
		logger:       logger,
		mntnerCache:  cache.NewMntnerCache(),
		relatedCache: cache.NewRelatedObjectCache(),
		preApproved:  make(map[rpsl.MntnerKey]bool),
	}
}

// PreApprove replaces the set of maintainer PKs treated as pre-approved:
// when one of newMntners appears as mnt-by on an object being checked,
// authentication against it is considered passed, since the maintainer
// does not yet exist in the database. BatchRunner calls this twice per
// batch — once with nil before evaluating new maintainers' own
// authentication, then again with only the PKs that actually passed —
// so a maintainer that fails its own check is never pre-approved for its
// siblings.
func (av *AuthValidator) PreApprove(newMntners []rpsl.MntnerKey) {
	av.preApproved = make(map[rpsl.MntnerKey]bool, len(newMntners))
	for _, key := range newMntners {
		av.preApproved[key] = true
	}
}

// ProcessAuth is AuthValidator's main entry point.
func (av *AuthValidator) ProcessAuth(ctx context.Context, creds rpsl.Credentials, objNew, objCurrent rpsl.Object) (*ValidatorResult, error) {
	result := NewValidatorResult()

	overrideOK, err := av.CheckOverride(creds)
	if err != nil {
		return nil, err
	}
	if overrideOK {
		result.MarkOverrideUsed()
		return result, nil
	}

	source := objNew.Source()

	newOK, newLoaded, err := av.checkMntners(ctx, objNew.Attribute("mnt-by"), source, creds, objNew)
	if err != nil {
		return nil, err
	}
	if !newOK {
		result.AddError(fmt.Sprintf(
			"Authorisation failed for %s %s: none of the maintainers %s authenticated",
			objNew.Class(), objNew.PK(), strings.Join(objNew.Attribute("mnt-by"), ", "),
		))
	}

	if objCurrent != nil {
		curOK, curLoaded, err := av.checkMntners(ctx, objCurrent.Attribute("mnt-by"), source, creds, objNew)
		if err != nil {
			return nil, err
		}
		if !curOK {
			result.AddError(fmt.Sprintf(
				"Authorisation failed for %s %s: none of the existing maintainers %s authenticated",
				objCurrent.Class(), objCurrent.PK(), strings.Join(objCurrent.Attribute("mnt-by"), ", "),
			))
		}
		result.SetNotify(mntnersAsInterfaces(curLoaded))
	} else {
		related, forcedErr, err := av.findRelatedMntners(ctx, objNew)
		if err != nil {
			return nil, err
		}
		if forcedErr != "" {
			result.AddError(forcedErr)
			result.SetNotify(mntnersAsInterfaces(newLoaded))
		} else if related != nil {
			relOK, relLoaded, err := av.checkMntners(ctx, related.mntBy, source, creds, objNew)
			if err != nil {
				return nil, err
			}
			if !relOK {
				result.AddError(fmt.Sprintf(
					"Authorisation failed: related %s %s requires authentication from its maintainers",
					related.class, related.pk,
				))
				result.SetNotify(mntnersAsInterfaces(relLoaded))
			} else {
				result.SetNotify(mntnersAsInterfaces(newLoaded))
			}
		} else {
			result.SetNotify(mntnersAsInterfaces(newLoaded))
		}
	}

	if rpsl.IsMntnerClass(objNew.Class()) {
		av.applyMntnerRules(result, creds, objNew, objCurrent)
	}

	return result, nil
}

// CheckOverride implements step 1 of ProcessAuth in isolation: true if
// internal-user override is set, or any supplied override secret verifies
// against the configured override password hash. A malformed configured
// hash is logged and treated as "no override possible", never as success.
func (av *AuthValidator) CheckOverride(creds rpsl.Credentials) (bool, error) {
	if creds.InternalUser != nil && creds.InternalUser.Override {
		return true, nil
	}
	if av.cfg.OverridePasswordHash == "" {
		return false, nil
	}
	for _, candidate := range creds.Overrides {
		ok, err := authcrypt.VerifyMD5Crypt(av.cfg.OverridePasswordHash, candidate)
		if err != nil {
			av.logger.Error("override password hash is malformed", "error", err)
			return false, nil
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// applyMntnerRules implements step 5: the maintainer-object special
// rules, mutated into result in place.
func (av *AuthValidator) applyMntnerRules(result *ValidatorResult, creds rpsl.Credentials, objNew, objCurrent rpsl.Object) {
	if objCurrent == nil {
		result.AddError("New mntner objects must be added by an administrator.")
		return
	}

	mntner, ok := objNew.(rpsl.Mntner)
	if !ok {
		return
	}

	if mntner.HasDummyAuthValue() {
		if len(creds.Passwords) != 1 {
			result.AddError("Dummy auth values may only be replaced when exactly one password is supplied.")
			return
		}
		if err := mntner.ForceSingleNewPassword(creds.Passwords[0]); err != nil {
			result.AddError(fmt.Sprintf("Failed to replace dummy auth values: %v", err))
			return
		}
		result.AddInfo("Dummy hash values in auth: attribute were replaced with a new BCRYPT-PW hash of the supplied password.")
		return
	}

	if mntner.VerifyAuth(creds.Passwords, creds.KeycertPK) {
		return
	}
	if av.internalUserAuthenticates(creds, rpsl.MntnerKey{PK: mntner.PK(), Source: mntner.Source()}, mntner) {
		return
	}
	result.AddError(fmt.Sprintf("Authorisation failed: mntner %s does not verify against the supplied credentials.", mntner.PK()))
}

// loadedMntner is one maintainer object checkMntners managed to load;
// checkMntners returns whether any PK authenticated plus the list of
// these (used to populate mntners_notify regardless of which method
// authenticated it).
type loadedMntner struct {
	key rpsl.MntnerKey
	obj *rpsl.GenericMntner
}

// checkMntners resolves a list of mnt-by PKs against the batch's
// credentials.
func (av *AuthValidator) checkMntners(ctx context.Context, mntnerPKs []string, source string, creds rpsl.Credentials, subject rpsl.Object) (bool, []loadedMntner, error) {
	if len(mntnerPKs) == 0 {
		return false, nil, nil
	}

	toFetch := make([]string, 0, len(mntnerPKs))
	loaded := make(map[string]*rpsl.GenericMntner, len(mntnerPKs))
	for _, pk := range mntnerPKs {
		key := rpsl.MntnerKey{PK: pk, Source: source}
		if cached, ok := av.mntnerCache.Get(key); ok {
			loaded[pk] = cached
			continue
		}
		toFetch = append(toFetch, pk)
	}

	if len(toFetch) > 0 {
		rows, err := av.objStore.FindObjects(ctx, store.ObjectQuery{
			Sources: []string{source},
			Classes: []rpsl.ObjectClass{rpsl.ClassMntner},
			PKs:     toFetch,
		})
		if err != nil {
			return false, nil, err
		}
		for _, row := range rows {
			obj := rpsl.NewGenericObject(row.Class, row.PK, row.Source, row.Attributes, row.Text)
			m := rpsl.NewGenericMntner(obj, row.Attributes["auth"])
			key := rpsl.MntnerKey{PK: row.PK, Source: row.Source}
			av.mntnerCache.Put(key, m)
			loaded[row.PK] = m
		}
	}

	var loadedList []loadedMntner
	anyAuthenticated := false
	for _, pk := range mntnerPKs {
		key := rpsl.MntnerKey{PK: pk, Source: source}
		m, ok := loaded[pk]
		if ok {
			loadedList = append(loadedList, loadedMntner{key: key, obj: m})
		}

		if !anyAuthenticated {
			switch {
			case av.preApproved[key]:
				anyAuthenticated = true
			case av.internalUserAuthenticates(creds, key, subject):
				anyAuthenticated = true
			case av.apiKeyAuthenticates(ctx, key, creds):
				anyAuthenticated = true
			case ok && m.VerifyAuth(creds.Passwords, creds.KeycertPK):
				anyAuthenticated = true
			}
		}
	}
	return anyAuthenticated, loadedList, nil
}

// internalUserAuthenticates implements the internal-auth linkage rule: if
// key identifies the object being changed, the user-management subset is
// required; otherwise the general maintainer set suffices.
func (av *AuthValidator) internalUserAuthenticates(creds rpsl.Credentials, key rpsl.MntnerKey, subject rpsl.Object) bool {
	if creds.InternalUser == nil {
		return false
	}
	if rpsl.IsMntnerClass(subject.Class()) && subject.PK() == key.PK && subject.Source() == key.Source {
		return creds.InternalUser.HasUserManagement(key)
	}
	return creds.InternalUser.HasGeneral(key)
}

func (av *AuthValidator) apiKeyAuthenticates(ctx context.Context, key rpsl.MntnerKey, creds rpsl.Credentials) bool {
	if len(creds.APIKeys) == 0 || av.authSess == nil {
		return false
	}
	ok, err := av.authSess.ResolveAPIKeyForMntner(ctx, key, creds.APIKeys, creds.Origin, creds.RemoteIP)
	if err != nil {
		av.logger.Error("api key resolution failed", "mntner", key.PK, "error", err)
		return false
	}
	return ok
}

// relatedObject names the related object found by findRelatedMntners,
// carrying only what the caller needs: its identity and mnt-by list.
type relatedObject struct {
	class rpsl.ObjectClass
	pk    string
	mntBy []string
}

// findRelatedMntners implements the related-object lookup for route and
// set creations. A non-empty forcedErr means the related object was
// required but absent; the caller surfaces it as a ValidatorResult error
// rather than a Go error.
func (av *AuthValidator) findRelatedMntners(ctx context.Context, objNew rpsl.Object) (related *relatedObject, forcedErr string, err error) {
	if route, ok := asRouteObject(objNew); ok {
		related, err = av.findRouteParent(ctx, route)
		return related, "", err
	}
	if set, ok := asSetObject(objNew); ok {
		return av.findSetParent(ctx, set)
	}
	return nil, "", nil
}

func (av *AuthValidator) findRouteParent(ctx context.Context, route rpsl.RouteObject) (*relatedObject, error) {
	if !av.cfg.AuthenticateParentsRouteCreation {
		return nil, nil
	}
	prefix := route.Prefix()
	source := route.Source()

	if obj, err := av.lookupCached(ctx, cache.RelatedObjectKey{Prefix: prefix}, func() (*store.ObjectRow, error) {
		return firstRow(av.objStore.FindObjects(ctx, store.ObjectQuery{
			Sources: []string{source}, Classes: []rpsl.ObjectClass{rpsl.InetnumClassFor(prefix)}, ExactPrefix: prefix, FirstOnly: true,
		}))
	}); err != nil {
		return nil, err
	} else if obj != nil {
		return &relatedObject{class: obj.class, pk: obj.pk, mntBy: obj.mntBy}, nil
	}

	parent, ok := rpsl.LessSpecific(prefix)
	if !ok {
		return nil, nil
	}

	if obj, err := av.lookupCached(ctx, cache.RelatedObjectKey{Prefix: parent, Class: rpsl.InetnumClassFor(prefix)}, func() (*store.ObjectRow, error) {
		return firstRow(av.objStore.FindObjects(ctx, store.ObjectQuery{
			Sources: []string{source}, Classes: []rpsl.ObjectClass{rpsl.InetnumClassFor(prefix)}, LessSpecificOf: parent, FirstOnly: true,
		}))
	}); err != nil {
		return nil, err
	} else if obj != nil {
		return &relatedObject{class: obj.class, pk: obj.pk, mntBy: obj.mntBy}, nil
	}

	if obj, err := av.lookupCached(ctx, cache.RelatedObjectKey{Prefix: parent, Class: rpsl.RouteClassFor(prefix)}, func() (*store.ObjectRow, error) {
		return firstRow(av.objStore.FindObjects(ctx, store.ObjectQuery{
			Sources: []string{source}, Classes: []rpsl.ObjectClass{rpsl.RouteClassFor(prefix)}, LessSpecificOf: parent, FirstOnly: true,
		}))
	}); err != nil {
		return nil, err
	} else if obj != nil {
		return &relatedObject{class: obj.class, pk: obj.pk, mntBy: obj.mntBy}, nil
	}

	return nil, nil
}

func (av *AuthValidator) findSetParent(ctx context.Context, set rpsl.SetObject) (related *relatedObject, forcedErr string, err error) {
	mode := rpsl.SetAuthModeForClass(set.Class(), av.cfg.SetAuthModes)
	if mode == rpsl.SetAuthDisabled {
		return nil, "", nil
	}
	asn, ok := set.PKASNSegment()
	if !ok {
		return nil, "", nil
	}

	key := cache.RelatedObjectKey{Class: rpsl.ClassAutNum, PK: asn, Source: set.Source()}
	obj, err := av.lookupCached(ctx, key, func() (*store.ObjectRow, error) {
		return firstRow(av.objStore.FindObjects(ctx, store.ObjectQuery{
			Sources: []string{set.Source()}, Classes: []rpsl.ObjectClass{rpsl.ClassAutNum}, PKs: []string{asn}, FirstOnly: true,
		}))
	})
	if err != nil {
		return nil, "", err
	}
	if obj == nil {
		if mode == rpsl.SetAuthRequired {
			return nil, fmt.Sprintf("Set creation requires aut-num %s to exist, but it does not.", asn), nil
		}
		return nil, "", nil
	}
	return &relatedObject{class: obj.class, pk: obj.pk, mntBy: obj.mntBy}, "", nil
}

func (av *AuthValidator) lookupCached(_ context.Context, key cache.RelatedObjectKey, fetch func() (*store.ObjectRow, error)) (*relatedObject, error) {
	if cached, ok := av.relatedCache.Get(key); ok {
		if cached == nil {
			return nil, nil
		}
		return &relatedObject{class: cached.Class(), pk: cached.PK(), mntBy: cached.Attribute("mnt-by")}, nil
	}
	row, err := fetch()
	if err != nil {
		return nil, err
	}
	if row == nil {
		av.relatedCache.Put(key, nil)
		return nil, nil
	}
	obj := rpsl.NewGenericObject(row.Class, row.PK, row.Source, row.Attributes, row.Text)
	av.relatedCache.Put(key, obj)
	return &relatedObject{class: obj.Class(), pk: obj.PK(), mntBy: obj.Attribute("mnt-by")}, nil
}

func firstRow(rows []store.ObjectRow, err error) (*store.ObjectRow, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func asRouteObject(obj rpsl.Object) (rpsl.RouteObject, bool) {
	if g, ok := obj.(*rpsl.GenericObject); ok {
		return g.AsRouteObject()
	}
	route, ok := obj.(rpsl.RouteObject)
	return route, ok
}

func asSetObject(obj rpsl.Object) (rpsl.SetObject, bool) {
	if g, ok := obj.(*rpsl.GenericObject); ok {
		return g.AsSetObject()
	}
	set, ok := obj.(rpsl.SetObject)
	return set, ok
}

func mntnersAsInterfaces(loaded []loadedMntner) []rpsl.Mntner {
	if len(loaded) == 0 {
		return nil
	}
	out := make([]rpsl.Mntner, 0, len(loaded))
	for _, l := range loaded {
		out = append(out, l.obj)
	}
	return out
}

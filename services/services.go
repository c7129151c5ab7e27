// Package services holds the domain rules: ward assignment, the complaint
// lifecycle, voting, authority aggregation and session handling. Every
// operation takes the caller's models.Session explicitly.
package services

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"wardsync/apperrors"
	"wardsync/cache"
	"wardsync/classifier"
	"wardsync/metrics"
	"wardsync/store"
)

type Deps struct {
	Store      store.Store
	Classifier classifier.Classifier
	Denylist   cache.Denylist
	Metrics    *metrics.Metrics
	Logger     *zap.Logger

	JWTSecret string
	TokenTTL  time.Duration

	// Now defaults to time.Now. Day boundaries use its location.
	Now func() time.Time
}

type Services struct {
	Auth       *AuthService
	Wards      *WardService
	Complaints *ComplaintService
	Authority  *AuthorityService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Classifier == nil {
		d.Classifier = classifier.Static{Result: classifier.Fallback}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	wards := &WardService{wards: d.Store, now: d.Now, logger: d.Logger.Named("wards")}
	return &Services{
		Auth: &AuthService{
			users:    d.Store,
			wards:    d.Store,
			denylist: d.Denylist,
			secret:   d.JWTSecret,
			ttl:      d.TokenTTL,
			now:      d.Now,
			logger:   d.Logger.Named("auth"),
		},
		Wards: wards,
		Complaints: &ComplaintService{
			complaints: d.Store,
			wards:      wards,
			classifier: d.Classifier,
			metrics:    d.Metrics,
			now:        d.Now,
			logger:     d.Logger.Named("complaints"),
		},
		Authority: &AuthorityService{
			complaints: d.Store,
			now:        d.Now,
			logger:     d.Logger.Named("authority"),
		},
	}
}

// storeError maps the store sentinels that need no operation-specific
// wording; anything unexpected becomes an internal error.
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(resource)
	default:
		return apperrors.Internal(err)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

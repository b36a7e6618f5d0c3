package cmd

import (
	"context"
	"os"
	"strings"

	"firefly/cli/internal/attrcache"
	"firefly/cli/internal/auth"
	"firefly/cli/internal/browser"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/keychain"
)

// baseOptions are the client options taken from configuration alone.
func (a *app) baseOptions() []hsds.Option {
	return []hsds.Option{
		hsds.WithTimeout(a.cfg.Timeout),
		hsds.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst),
	}
}

// authService returns the login service, or nil when no keychain is available.
func (a *app) authService() *auth.Service {
	km, err := keychain.GetManager()
	if err != nil {
		a.log.Debug("keychain unavailable", "error", err)
		return nil
	}
	return auth.NewService(a.cfg.Endpoint, km, a.log, a.baseOptions()...)
}

// clientOptions adds credentials: FIREFLY_USERNAME/FIREFLY_PASSWORD when set,
// otherwise whatever `firefly login` stored.
func (a *app) clientOptions() []hsds.Option {
	opts := a.baseOptions()
	if user := strings.TrimSpace(os.Getenv("FIREFLY_USERNAME")); user != "" {
		return append(opts, hsds.WithCredentials(user, os.Getenv("FIREFLY_PASSWORD")))
	}
	if svc := a.authService(); svc != nil {
		opts = append(opts, svc.ClientOptions()...)
	}
	return opts
}

// catalog builds the HSDS client, behind the Redis cache when one is
// configured and reachable. The returned func releases the cache connection.
func (a *app) catalog(ctx context.Context) (browser.Catalog, func()) {
	client := hsds.New(a.cfg.Endpoint, a.clientOptions()...)
	if a.cfg.Cache.RedisAddr == "" {
		return client, func() {}
	}
	rdb, err := attrcache.Dial(ctx, a.cfg.Cache.RedisAddr)
	if err != nil {
		a.log.Warn("attribute cache disabled", "error", err)
		return client, func() {}
	}
	a.log.Debug("attribute cache enabled", "redis", a.cfg.Cache.RedisAddr, "ttl", a.cfg.Cache.TTL)
	return attrcache.New(client, rdb, a.cfg.Cache.TTL, a.log), func() { _ = rdb.Close() }
}

// newModel creates a model over catalog with the configured scope.
func (a *app) newModel(catalog browser.Catalog) *browser.Model {
	return browser.NewModel(catalog, browser.Options{
		Endpoint:  a.cfg.Endpoint,
		Bucket:    a.cfg.Bucket,
		Folder:    a.cfg.Folder,
		BatchSize: a.cfg.BatchSize,
		Logger:    a.log,
	})
}

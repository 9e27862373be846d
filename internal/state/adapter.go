// Package state is the sync layer between the reporting engine and wherever
// the data actually lives. It loads from the backend when one is configured
// and reachable, and otherwise serves the embedded catalog plus a local JSON
// cache. Writes go remote-first; any remote failure downgrades the session to
// local-only and the mutation lands in the cache either way.
package state

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groupscholar/opportunity-radar/internal/catalog"
	"github.com/groupscholar/opportunity-radar/internal/models"
)

// ErrInvalidEntry rejects an intake before any persistence is attempted.
var ErrInvalidEntry = errors.New("name and a YYYY-MM-DD deadline are required")

// Mode reports where the adapter is reading and writing.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

type Adapter struct {
	remote *Remote // nil when no backend is configured
	cache  *Cache
	log    *zap.Logger

	mode          Mode
	clientID      string
	opportunities []models.Opportunity
	watchlist     models.Watchlist
}

// New builds an adapter. An empty remoteURL pins the session to local mode.
func New(remoteURL, cacheDir string, log *zap.Logger) *Adapter {
	a := &Adapter{
		cache:     NewCache(cacheDir),
		log:       log.Named("state"),
		mode:      ModeLocal,
		watchlist: models.NewWatchlist(),
	}
	if remoteURL != "" {
		a.remote = NewRemote(remoteURL)
	}
	return a
}

// ClientID returns the durable identifier, generating and persisting one on
// first use.
func (a *Adapter) ClientID() string {
	if a.clientID != "" {
		return a.clientID
	}
	st := a.cache.Load()
	if st.ClientID == "" {
		st.ClientID = uuid.NewString()
		if err := a.cache.Save(st); err != nil {
			a.log.Warn("failed to persist client id", zap.Error(err))
		}
	}
	a.clientID = st.ClientID
	return a.clientID
}

// Load hydrates the in-memory collection. Remote is tried first when
// configured; any failure falls back to the embedded catalog plus the local
// cache.
func (a *Adapter) Load(ctx context.Context) error {
	client := a.ClientID()

	if a.remote != nil {
		opps, err := a.remote.ListOpportunities(ctx, client)
		if err == nil {
			var watch []string
			watch, err = a.remote.ListWatchlist(ctx, client)
			if err == nil {
				a.mode = ModeRemote
				a.opportunities = opps
				a.watchlist = models.NewWatchlist(watch...)
				return nil
			}
		}
		a.log.Warn("remote unavailable, falling back to local cache", zap.Error(err))
	}

	return a.loadLocal()
}

func (a *Adapter) loadLocal() error {
	a.mode = ModeLocal

	base, err := catalog.Base()
	if err != nil {
		return err
	}
	st := a.cache.Load()

	all := append(base, st.Custom...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Deadline < all[j].Deadline
	})

	a.opportunities = all
	a.watchlist = models.NewWatchlist(st.Watchlist...)
	return nil
}

func (a *Adapter) Mode() Mode { return a.mode }

// Opportunities returns the loaded collection. Callers treat it as read-only.
func (a *Adapter) Opportunities() []models.Opportunity { return a.opportunities }

func (a *Adapter) Watchlist() models.Watchlist { return a.watchlist }

// AddOpportunity creates or replaces a custom entry. A missing id gets a
// generated one. The entry is mirrored into the local cache whether or not
// the remote write succeeds.
func (a *Adapter) AddOpportunity(ctx context.Context, o models.Opportunity) (models.Opportunity, error) {
	if o.ID == "" {
		o.ID = "custom-" + uuid.NewString()
	}
	o.Custom = true
	o.Funding = models.CoerceFunding(o.Funding)
	o.Fit = models.CoerceFit(o.Fit)

	if _, err := models.ParseDeadline(o.Deadline); err != nil || o.Name == "" {
		return o, ErrInvalidEntry
	}

	a.tryRemote(func() error {
		return a.remote.UpsertOpportunity(ctx, a.ClientID(), o)
	})

	st := a.cache.Load()
	st.ClientID = a.ClientID()
	st.Custom = replaceByID(st.Custom, o)
	if err := a.cache.Save(st); err != nil {
		return o, err
	}

	a.opportunities = replaceByID(a.opportunities, o)
	return o, nil
}

// RemoveOpportunity deletes a custom entry and drops it from the watchlist.
func (a *Adapter) RemoveOpportunity(ctx context.Context, id string) error {
	a.tryRemote(func() error {
		return a.remote.DeleteOpportunity(ctx, a.ClientID(), id)
	})

	st := a.cache.Load()
	st.ClientID = a.ClientID()
	st.Custom = removeByID(st.Custom, id)
	st.Watchlist = removeString(st.Watchlist, id)
	if err := a.cache.Save(st); err != nil {
		return err
	}

	a.opportunities = removeByID(a.opportunities, id)
	a.watchlist.Remove(id)
	return nil
}

// ToggleWatch flips watchlist membership and returns the new state. The
// remote upsert/delete is called exactly once per toggle; the cache always
// reflects the toggle result even when the remote call fails.
func (a *Adapter) ToggleWatch(ctx context.Context, id string) bool {
	active := !a.watchlist.Has(id)
	if active {
		a.watchlist.Add(id)
	} else {
		a.watchlist.Remove(id)
	}

	a.tryRemote(func() error {
		return a.remote.SetWatch(ctx, a.ClientID(), id, active)
	})

	st := a.cache.Load()
	st.ClientID = a.ClientID()
	ids := a.watchlist.IDs()
	sort.Strings(ids)
	st.Watchlist = ids
	if err := a.cache.Save(st); err != nil {
		a.log.Warn("failed to persist watchlist", zap.Error(err))
	}

	return active
}

// tryRemote runs a remote write when the session is in remote mode. A failed
// write downgrades the session to local-only; it is not retried.
func (a *Adapter) tryRemote(call func() error) {
	if a.mode != ModeRemote || a.remote == nil {
		return
	}
	if err := call(); err != nil {
		a.log.Warn("remote write failed, downgrading to local-only mode", zap.Error(err))
		a.mode = ModeLocal
	}
}

func replaceByID(items []models.Opportunity, o models.Opportunity) []models.Opportunity {
	for i := range items {
		if items[i].ID == o.ID {
			items[i] = o
			return items
		}
	}
	return append(items, o)
}

func removeByID(items []models.Opportunity, id string) []models.Opportunity {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

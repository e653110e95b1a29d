package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
	"github.com/alphabeta/chapter-portal/internal/core/ports"
)

// Tables groups the remote tables of one backend.
type Tables struct {
	Members    ports.RemoteTable[domain.Member]
	Organizers ports.RemoteTable[domain.Organizer]
	Affiliates ports.RemoteTable[domain.Affiliate]
	HonorRoll  ports.RemoteTable[domain.HonorRollEntry]
	Profiles   ports.RemoteTable[domain.UserProfile]
	Pages      ports.RemoteTable[domain.ContentPage]
	Timeline   ports.RemoteTable[domain.TimelineEvent]
}

// Scheduler runs load jobs in the background. Schedule reports false when
// the job could not be queued.
type Scheduler interface {
	Schedule(key string, job func(context.Context)) bool
}

// PortalDeps are the collaborators shared by every portal.
type PortalDeps struct {
	Tables             Tables
	Assets             ports.AssetStore
	Provisioner        ports.Provisioner
	Clock              ports.Clock
	Retry              RetryPolicies
	DefaultChapterName string
	Loader             Scheduler // nil loads synchronously

	// ProfileTTL is how long the registry trusts a resolved profile before
	// reading it again. Zero reads it on every request.
	ProfileTTL time.Duration
}

// Portal is the state of one logged-in client: its session and a store per
// collection.
type Portal struct {
	Session    *SessionHolder
	Members    *Store[domain.Member, *domain.Member]
	Organizers *Store[domain.Organizer, *domain.Organizer]
	Affiliates *Store[domain.Affiliate, *domain.Affiliate]
	HonorRoll  *Store[domain.HonorRollEntry, *domain.HonorRollEntry]
	Timeline   *Store[domain.TimelineEvent, *domain.TimelineEvent]
	Users      *UserStore
	Pages      *PageStore
	Settings   *SettingsStore

	loader Scheduler
	log    zerolog.Logger
	stop   context.CancelFunc

	mu     sync.Mutex
	loaded chan struct{}
	done   bool
}

type loadable interface {
	Load(ctx context.Context)
	Reset()
}

// NewPortal wires the stores to a fresh session holder and starts watching
// provider events. Call Close to stop.
func NewPortal(provider ports.IdentityProvider, deps PortalDeps, log zerolog.Logger) *Portal {
	session := NewSessionHolder(provider, deps.Tables.Profiles, deps.Retry, log)
	pages := NewPageStore(deps.Tables.Pages, session, deps.Clock, log)

	p := &Portal{
		Session:    session,
		Members:    NewStore[domain.Member](TableMembers, deps.Tables.Members, session, deps.Clock, log),
		Organizers: NewStore[domain.Organizer](TableOrganizers, deps.Tables.Organizers, session, deps.Clock, log),
		Affiliates: NewStore[domain.Affiliate](TableAffiliates, deps.Tables.Affiliates, session, deps.Clock, log),
		HonorRoll:  NewStore[domain.HonorRollEntry](TableHonorRoll, deps.Tables.HonorRoll, session, deps.Clock, log),
		Timeline:   NewStore[domain.TimelineEvent](TableTimeline, deps.Tables.Timeline, session, deps.Clock, log),
		Users:      NewUserStore(deps.Tables.Profiles, session, deps.Clock, deps.Provisioner, log),
		Pages:      pages,
		Settings:   NewSettingsStore(pages, deps.Assets, deps.DefaultChapterName, log),
		loader:     deps.Loader,
		log:        log,
		loaded:     make(chan struct{}),
	}
	session.OnChange(p.identityChanged)

	ctx, cancel := context.WithCancel(context.Background())
	p.stop = cancel
	go session.Watch(ctx)
	return p
}

// Load refreshes every store concurrently. Profiles are fetched only for
// admins.
func (p *Portal) Load(ctx context.Context) error {
	stores := []loadable{p.Members, p.Organizers, p.Affiliates, p.HonorRoll, p.Timeline, p.Pages}
	if p.Session.Identity().IsAdmin() {
		stores = append(stores, p.Users)
	} else {
		p.Users.Reset()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range stores {
		g.Go(func() error {
			s.Load(gctx)
			return gctx.Err()
		})
	}
	err := g.Wait()

	p.Settings.Refresh()
	p.markLoaded()
	return err
}

// AwaitLoaded blocks until the first load after login finished or ctx ends.
func (p *Portal) AwaitLoaded(ctx context.Context) error {
	p.mu.Lock()
	ch := p.loaded
	p.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops event handling. Pending loads finish but are discarded.
func (p *Portal) Close() {
	p.stop()
}

func (p *Portal) identityChanged(id *domain.Identity) {
	if id == nil {
		p.mu.Lock()
		if p.done {
			p.loaded = make(chan struct{})
			p.done = false
		}
		p.mu.Unlock()
		for _, s := range []loadable{p.Members, p.Organizers, p.Affiliates, p.HonorRoll, p.Timeline, p.Pages, p.Users} {
			s.Reset()
		}
		p.Settings.Refresh()
		return
	}

	job := func(ctx context.Context) {
		if err := p.Load(ctx); err != nil {
			p.log.Warn().Err(err).Msg("portal load interrupted")
		}
	}
	if p.loader != nil && p.loader.Schedule(id.ID, job) {
		return
	}
	job(context.Background())
}

func (p *Portal) markLoaded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.done = true
		close(p.loaded)
	}
}

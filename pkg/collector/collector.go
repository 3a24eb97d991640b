package collector

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NfNitLoop/nostr-cli/pkg/encoders/event"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/filter"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kind"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/kinds"
	"github.com/NfNitLoop/nostr-cli/pkg/encoders/tag"
	"github.com/NfNitLoop/nostr-cli/pkg/protocol/ws"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/context"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/log"
)

const (
	// DefaultLimit bounds how many events are copied per author when the
	// profile does not say otherwise.
	DefaultLimit = 500

	// refChunkSize is the largest number of ids packed into one REQ when
	// resolving referenced events.
	refChunkSize = 50

	// refParallelism bounds concurrent reference fetches. Profile fetches
	// run one at a time; some relays reject concurrent requests on the
	// same connection.
	refParallelism = 3

	// queryTimeout bounds each individual source-relay query so one dead
	// relay cannot stall a run.
	queryTimeout = time.Minute
)

// Profile describes one replication target.
type Profile struct {
	// Name labels the profile in logs.
	Name string
	// Pubkey is the owner's 32 byte x-only pubkey in hex. Required.
	Pubkey string
	// Seckey is optional; operations that sign need it.
	Seckey string
	// Destination is the relay everything is copied to.
	Destination string
	// SourceRelays are the relays copied from.
	SourceRelays []string
	// The four fetch switches; all default to true in the config layer.
	FetchMine        bool
	FetchFollows     bool
	FetchMyRefs      bool
	FetchFollowsRefs bool
	// Limit caps events copied per author. Zero means DefaultLimit.
	Limit uint
}

// Collector runs the replication pipeline for one profile. Create one per
// run; the dedup state lives for the lifetime of the Collector.
type Collector struct {
	profile *Profile

	clientMutex sync.Mutex
	clients     map[string]*ws.Client
	dest        *ws.Client

	// copiedEvents holds every event id already submitted for publishing.
	// Ids are added before the publish attempt so concurrent publishers
	// racing on the same id cannot stampede the destination.
	copiedMutex    sync.Mutex
	copiedEvents   map[string]struct{}
	copiedProfiles map[string]int64

	refMutex    sync.Mutex
	eventRefs   map[string]struct{}
	profileRefs map[string]struct{}

	// Copied counts events actually accepted by the destination.
	Copied int
}

// New creates a Collector for one profile.
func New(p *Profile) (cl *Collector) {
	return &Collector{
		profile:        p,
		clients:        make(map[string]*ws.Client),
		copiedEvents:   make(map[string]struct{}),
		copiedProfiles: make(map[string]int64),
		eventRefs:      make(map[string]struct{}),
		profileRefs:    make(map[string]struct{}),
	}
}

// client returns a cached connection for url, dialing lazily. A cached
// connection that has since closed is discarded and re-dialed.
func (cl *Collector) client(c context.T, url string) (r *ws.Client, err error) {
	cl.clientMutex.Lock()
	defer cl.clientMutex.Unlock()
	if r = cl.clients[url]; r != nil {
		if r.IsConnected() {
			return
		}
		delete(cl.clients, url)
	}
	if r, err = ws.Connect(c, url); err != nil {
		return nil, err
	}
	cl.clients[url] = r
	return
}

// sources dials every reachable source relay. Unreachable relays are logged
// and skipped.
func (cl *Collector) sources(c context.T) (rs []*ws.Client) {
	for _, u := range cl.profile.SourceRelays {
		r, err := cl.client(c, u)
		if err != nil {
			log.W.F("source relay %s unreachable: %v", u, err)
			continue
		}
		rs = append(rs, r)
	}
	return
}

func (cl *Collector) limit() (n uint) {
	if cl.profile.Limit > 0 {
		return cl.profile.Limit
	}
	return DefaultLimit
}

// Run executes the pipeline: seed the owner's metadata and follow list,
// copy the owner's events, copy the follows' events, then resolve the
// referenced events and profiles recorded along the way.
func (cl *Collector) Run(c context.T) (err error) {
	p := cl.profile
	if cl.dest, err = cl.client(c, p.Destination); chk.E(err) {
		return errorf.E(
			"collector %s: destination %s unreachable: %w", p.Name,
			p.Destination, err,
		)
	}
	sources := cl.sources(c)
	if len(sources) == 0 {
		return errorf.E("collector %s: no reachable source relays", p.Name)
	}
	multi := NewMultiClient(sources)

	cl.seed(c, multi)
	if p.FetchMine {
		log.I.F("collector %s: copying own events", p.Name)
		cl.copyAuthor(c, sources, p.Pubkey, p.FetchMyRefs)
	}
	if p.FetchFollows {
		follows := cl.follows(c)
		log.I.F("collector %s: copying %d followed authors", p.Name, len(follows))
		for _, followed := range follows {
			cl.copyAuthor(c, sources, followed, p.FetchFollowsRefs)
		}
	}
	cl.copyEventRefs(c, multi)
	cl.copyProfileRefs(c, multi)
	log.I.F("collector %s: copied %d events", p.Name, cl.Copied)
	return
}

// seed copies the owner's newest kind 0 and kind 3 events from any
// reachable source to the destination.
func (cl *Collector) seed(c context.T, multi *MultiClient) {
	for _, k := range []*kind.T{kind.ProfileMetadata, kind.FollowList} {
		qc, done := context.Timeout(c, queryTimeout)
		ev := multi.GetLatest(qc, cl.profile.Pubkey, k)
		done()
		if ev == nil {
			log.W.F(
				"collector %s: no kind %d found for owner on any source",
				cl.profile.Name, k.Int(),
			)
			continue
		}
		cl.copyEvent(c, ev, false)
	}
}

// copyAuthor copies up to the profile limit of events by pubkey from each
// source relay, recording references when followRefs is set.
func (cl *Collector) copyAuthor(
	c context.T, sources []*ws.Client, pubkey string, followRefs bool,
) {
	lim := cl.limit()
	f := &filter.F{Authors: tag.New(pubkey), Limit: &lim}
	for _, src := range sources {
		qc, done := context.Timeout(c, queryTimeout)
		evs := src.QuerySimple(qc, f)
		done()
		for _, ev := range evs {
			cl.copyEvent(c, ev, followRefs)
		}
		if c.Err() != nil {
			return
		}
	}
}

// follows reads the owner's follow list back from the destination and
// extracts the followed pubkeys from its p tags.
func (cl *Collector) follows(c context.T) (pubkeys []string) {
	qc, done := context.Timeout(c, queryTimeout)
	defer done()
	ev := cl.dest.QueryOne(
		qc, &filter.F{
			Authors: tag.New(cl.profile.Pubkey),
			Kinds:   kinds.New(kind.FollowList),
		},
	)
	if ev == nil {
		log.W.F(
			"collector %s: destination has no follow list for owner",
			cl.profile.Name,
		)
		return
	}
	seen := make(map[string]struct{})
	for _, pt := range ev.Tags.All("p") {
		pk := string(pt.Value())
		if pk == "" {
			continue
		}
		if _, dup := seen[pk]; dup {
			continue
		}
		seen[pk] = struct{}{}
		pubkeys = append(pubkeys, pk)
	}
	return
}

// copyEvent publishes one event to the destination unless it was already
// submitted this run. The id enters the dedup set before the publish
// attempt.
func (cl *Collector) copyEvent(c context.T, ev *event.E, followRefs bool) {
	id := ev.IdString()
	cl.copiedMutex.Lock()
	if _, done := cl.copiedEvents[id]; done {
		cl.copiedMutex.Unlock()
		return
	}
	cl.copiedEvents[id] = struct{}{}
	cl.copiedMutex.Unlock()

	res := cl.dest.TryPublish(c, ev)
	if res.HadError {
		log.W.F("collector %s: failed to copy %s", cl.profile.Name, id)
	} else if res.Published && !res.IsDuplicate {
		cl.copiedMutex.Lock()
		cl.Copied++
		cl.copiedMutex.Unlock()
	}
	if kind.ProfileMetadata.Equal(ev.Kind) {
		cl.noteProfile(ev.PubKeyString(), ev.CreatedAt.I64())
	}
	cl.recordRefs(ev, followRefs)
}

// recordRefs notes an event's references: the author is always a profile
// ref; when followTags is set, e tags yield referenced event ids and p tags
// referenced pubkeys. Parameterized replaceable references (a tags) are not
// followed.
func (cl *Collector) recordRefs(ev *event.E, followTags bool) {
	cl.refMutex.Lock()
	defer cl.refMutex.Unlock()
	cl.profileRefs[ev.PubKeyString()] = struct{}{}
	if !followTags {
		return
	}
	for _, et := range ev.Tags.All("e") {
		if id := string(et.Value()); id != "" {
			cl.eventRefs[id] = struct{}{}
		}
	}
	for _, pt := range ev.Tags.All("p") {
		if pk := string(pt.Value()); pk != "" {
			cl.profileRefs[pk] = struct{}{}
		}
	}
}

func (cl *Collector) noteProfile(pubkey string, createdAt int64) {
	cl.copiedMutex.Lock()
	defer cl.copiedMutex.Unlock()
	if prev, have := cl.copiedProfiles[pubkey]; !have || createdAt > prev {
		cl.copiedProfiles[pubkey] = createdAt
	}
}

func (cl *Collector) hasProfile(pubkey string) (have bool) {
	cl.copiedMutex.Lock()
	defer cl.copiedMutex.Unlock()
	_, have = cl.copiedProfiles[pubkey]
	return
}

// copyEventRefs resolves recorded event references that were not copied yet,
// in chunks across the sources with bounded parallelism.
func (cl *Collector) copyEventRefs(c context.T, multi *MultiClient) {
	cl.refMutex.Lock()
	var missing []string
	cl.copiedMutex.Lock()
	for id := range cl.eventRefs {
		if _, done := cl.copiedEvents[id]; !done {
			missing = append(missing, id)
		}
	}
	cl.copiedMutex.Unlock()
	cl.refMutex.Unlock()
	if len(missing) == 0 {
		return
	}
	log.I.F("collector %s: resolving %d referenced events", cl.profile.Name, len(missing))

	g, gc := errgroup.WithContext(c)
	g.SetLimit(refParallelism)
	for start := 0; start < len(missing); start += refChunkSize {
		chunk := missing[start:min(start+refChunkSize, len(missing))]
		g.Go(
			func() (gerr error) {
				qc, done := context.Timeout(gc, queryTimeout)
				found := multi.GetEvents(qc, chunk)
				done()
				for _, ev := range found {
					cl.copyEvent(gc, ev, false)
				}
				return
			},
		)
	}
	_ = g.Wait()
}

// copyProfileRefs resolves recorded profile references one at a time.
func (cl *Collector) copyProfileRefs(c context.T, multi *MultiClient) {
	cl.refMutex.Lock()
	var pubkeys []string
	for pk := range cl.profileRefs {
		pubkeys = append(pubkeys, pk)
	}
	cl.refMutex.Unlock()
	log.I.F("collector %s: resolving %d referenced profiles", cl.profile.Name, len(pubkeys))
	for _, pk := range pubkeys {
		if cl.hasProfile(pk) {
			continue
		}
		if c.Err() != nil {
			return
		}
		qc, done := context.Timeout(c, queryTimeout)
		ev := multi.GetProfile(qc, pk)
		done()
		if ev == nil {
			log.D.F("collector %s: no profile found for %s", cl.profile.Name, pk)
			continue
		}
		cl.copyEvent(c, ev, false)
	}
}

// Close drops every cached connection.
func (cl *Collector) Close() {
	cl.clientMutex.Lock()
	defer cl.clientMutex.Unlock()
	for _, r := range cl.clients {
		_ = r.Close()
	}
}

package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/zonlink/zonlink/internal/analytics"
)

// FallbackDelay is how long the iOS race waits before forcing the web
// fallback. If the app took over within this window the page visibility
// signal suppresses the fallback at fire time.
const FallbackDelay = 2500 * time.Millisecond

// State is the client-observable resolution state.
type State int

const (
	StateInit State = iota
	StateDetecting
	StateNavigating
	StateTerminal
	// StateInvalid is the terminal display state for requests with no
	// product id: no navigation, no attribution.
	StateInvalid
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDetecting:
		return "detecting"
	case StateNavigating:
		return "navigating"
	case StateTerminal:
		return "terminal"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Params identify the product and affiliate context for one resolution.
type Params struct {
	ProductID    string
	AffiliateTag string
	RegionDomain string // static default, lowest-priority geography
	Slug         string
}

// Navigator issues a navigation to a destination URI. Navigation is not
// observable after it starts; implementations must not block.
type Navigator interface {
	Navigate(uri string)
}

// Deps are the session's collaborators.
type Deps struct {
	// Device is the classified platform of the requester.
	Device analytics.DeviceClass

	// Country resolves geography best-effort; empty means unknown.
	// Must honor ctx cancellation (the chain carries its own timeout).
	Country func(ctx context.Context) string

	// Navigator receives every navigation dispatch.
	Navigator Navigator

	// Attribute fires the click attribution. The session latches it to
	// at most one invocation regardless of retriggers.
	Attribute func()

	// PageVisible reports whether the page is still in the foreground.
	// Checked when the fallback timer fires: a hidden page means the
	// app took over and the web fallback is suppressed.
	PageVisible func() bool

	// AfterFunc arms the fallback timer. Defaults to time.AfterFunc;
	// tests substitute a synchronous version.
	AfterFunc func(d time.Duration, f func()) *time.Timer
}

// Session executes one resolution attempt: Init -> Detecting ->
// Navigating -> Terminal, with the iOS app-try/web-fallback race.
// Navigation may be issued more than once (the manual open-app button
// re-triggers it); attribution fires at most once.
type Session struct {
	params Params
	deps   Deps

	mu           sync.Mutex
	state        State
	destinations Destinations

	attributeOnce sync.Once
}

// NewSession creates a Session. Missing optional deps are defaulted to
// inert implementations.
func NewSession(params Params, deps Deps) *Session {
	if deps.Country == nil {
		deps.Country = func(context.Context) string { return "" }
	}
	if deps.Attribute == nil {
		deps.Attribute = func() {}
	}
	if deps.PageVisible == nil {
		deps.PageVisible = func() bool { return true }
	}
	if deps.AfterFunc == nil {
		deps.AfterFunc = time.AfterFunc
	}
	return &Session{params: params, deps: deps, state: StateInit}
}

// State returns the current resolution state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Destinations returns the URIs computed at dispatch time. Zero-valued
// before Run completes detection.
func (s *Session) Destinations() Destinations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destinations
}

// Run executes the state machine and returns the terminal state. A
// missing product id short-circuits to StateInvalid with zero
// navigations and zero attribution calls.
func (s *Session) Run(ctx context.Context) State {
	if s.params.ProductID == "" {
		s.setState(StateInvalid)
		return StateInvalid
	}

	s.setState(StateDetecting)

	// Geography is best-effort and bounded by the chain's own timeout.
	// Whatever it yields now is what the race dispatches with; a late
	// result never re-navigates.
	domain := s.params.RegionDomain
	if country := s.deps.Country(ctx); country != "" {
		if d := DomainForCountry(country); d != "" {
			domain = d
		}
	}

	dest := BuildDestinations(s.params.ProductID, s.params.AffiliateTag, domain)

	s.mu.Lock()
	s.destinations = dest
	s.state = StateNavigating
	s.mu.Unlock()

	s.fireAttribution()
	s.navigate(dest)

	s.setState(StateTerminal)
	return StateTerminal
}

// OpenApp re-triggers the per-device navigation on demand, independent
// of the automatic race. Safe before Run has computed destinations
// (no-op) and never fires attribution again.
func (s *Session) OpenApp() {
	s.mu.Lock()
	dest := s.destinations
	state := s.state
	s.mu.Unlock()

	if state != StateNavigating && state != StateTerminal {
		return
	}
	s.navigate(dest)
}

// navigate issues the per-device navigation, arming the fallback race
// where the platform doesn't resolve app-vs-web itself.
func (s *Session) navigate(dest Destinations) {
	switch s.deps.Device {
	case analytics.DeviceAndroid:
		// The OS handles app-vs-fallback via the intent URI.
		s.deps.Navigator.Navigate(dest.Intent)
	case analytics.DeviceIOS:
		s.deps.Navigator.Navigate(dest.AppScheme)
		s.deps.AfterFunc(FallbackDelay, func() {
			// Visibility is the implicit cancellation: a hidden page
			// means the app took over.
			if s.deps.PageVisible() {
				s.deps.Navigator.Navigate(dest.Web)
			}
		})
	default:
		// Unrecognized platforms are treated as desktop: direct web
		// navigation, no race.
		s.deps.Navigator.Navigate(dest.Web)
	}
}

// fireAttribution invokes the attribution callback at most once per
// session, guarding against duplicate counting on re-render or manual
// retriggers.
func (s *Session) fireAttribution() {
	s.attributeOnce.Do(s.deps.Attribute)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

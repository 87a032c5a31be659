package popup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCart struct {
	count int
	err   error
	calls int
}

func (s *stubCart) ItemCount(ctx context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

type recordedEvents struct {
	shown     []View
	ticks     []int
	hidden    int
	navigated []string
}

func (r *recordedEvents) ShowPopup(view View) { r.shown = append(r.shown, view) }
func (r *recordedEvents) Tick(remaining int)  { r.ticks = append(r.ticks, remaining) }
func (r *recordedEvents) HidePopup()          { r.hidden++ }
func (r *recordedEvents) Navigate(url string) { r.navigated = append(r.navigated, url) }

func testConfig() Config {
	return Config{
		BackgroundColor:    "#FF5733",
		TextColor:          "#FFFFFF",
		Emoji:              "🔥",
		TimerDuration:      15,
		DiscountPercentage: 25,
		BarText:            "Limited time offer! {discount}% off your entire order automatically applied!",
		SessionThreshold:   60,
		RequireCartItems:   true,
		DiscountCode:       "SAVE25AB",
		IsAutomatic:        true,
	}
}

func newTestEngine(cfg Config, cart CartFetcher) (*Engine, *MemorySessionStore, *recordedEvents, *clockwork.FakeClock) {
	store := NewMemorySessionStore()
	events := &recordedEvents{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	engine := NewEngine(cfg, store, cart, events, WithClock(clock))
	return engine, store, events, clock
}

func TestShowAfterThresholdAndCartItems(t *testing.T) {
	cart := &stubCart{count: 2}
	engine, store, events, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	assert.Equal(t, StatePolling, engine.State())

	// session trop jeune : rien ne se passe, le panier n'est même pas lu
	engine.PollTick(ctx)
	assert.Equal(t, StatePolling, engine.State())
	assert.Zero(t, cart.calls)

	clock.Advance(61 * time.Second)
	engine.PollTick(ctx)

	assert.Equal(t, StateVisible, engine.State())
	require.Len(t, events.shown, 1)
	assert.Equal(t, "SAVE25AB", events.shown[0].Code)
	assert.Equal(t, 25, events.shown[0].Percentage)
	assert.Equal(t, "Limited time offer! 25% off your entire order automatically applied!", events.shown[0].BarText)
	assert.Equal(t, 15*60, events.shown[0].RemainingSeconds)
	assert.True(t, store.Shown())
}

func TestEmptyCartBlocksPopup(t *testing.T) {
	cart := &stubCart{count: 0}
	engine, _, events, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)

	engine.PollTick(ctx)
	assert.Equal(t, StatePolling, engine.State())
	assert.Empty(t, events.shown)

	// le panier se remplit : le prochain tick affiche
	cart.count = 1
	engine.PollTick(ctx)
	assert.Equal(t, StateVisible, engine.State())
}

func TestCartErrorIsToleratedThisTick(t *testing.T) {
	cart := &stubCart{err: errors.New("cart.js injoignable")}
	engine, _, _, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)

	engine.PollTick(ctx)
	assert.Equal(t, StatePolling, engine.State())

	cart.err = nil
	cart.count = 3
	engine.PollTick(ctx)
	assert.Equal(t, StateVisible, engine.State())
}

func TestCartIgnoredWhenNotRequired(t *testing.T) {
	cfg := testConfig()
	cfg.RequireCartItems = false
	cart := &stubCart{count: 0}
	engine, _, _, clock := newTestEngine(cfg, cart)

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(context.Background())

	assert.Equal(t, StateVisible, engine.State())
	assert.Zero(t, cart.calls)
}

func TestDismissIsTerminalForSession(t *testing.T) {
	cart := &stubCart{count: 1}
	engine, store, events, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	engine.Dismiss()
	assert.Equal(t, StateDismissed, engine.State())
	assert.Equal(t, 1, events.hidden)
	assert.True(t, store.Dismissed())

	// rechargement de page : même stockage, nouveau moteur
	reloaded := NewEngine(testConfig(), store, cart, &recordedEvents{}, WithClock(clock))
	reloaded.Start()
	assert.Equal(t, StateDismissed, reloaded.State())
}

func TestCountdownExpiryClosesForSession(t *testing.T) {
	cfg := testConfig()
	cart := &stubCart{count: 1}
	engine, store, events, clock := newTestEngine(cfg, cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	remaining := events.shown[0].RemainingSeconds
	for i := 0; i < remaining; i++ {
		engine.CountdownTick()
	}

	assert.Equal(t, StateExpired, engine.State())
	assert.Equal(t, 1, events.hidden)
	assert.True(t, store.Dismissed())
	// le dernier tick visible affichait 1 seconde
	assert.Equal(t, 1, events.ticks[len(events.ticks)-1])
}

func TestReloadWhileDiscountStillActiveShowsAgain(t *testing.T) {
	cart := &stubCart{count: 1}
	engine, store, _, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	// rechargement sans fermeture : la remise en cache est toujours bonne,
	// le popup revient sans repasser par le sondage
	events2 := &recordedEvents{}
	reloaded := NewEngine(testConfig(), store, cart, events2, WithClock(clock))
	reloaded.Start()

	assert.Equal(t, StateVisible, reloaded.State())
	require.Len(t, events2.shown, 1)
	assert.Equal(t, "SAVE25AB", events2.shown[0].Code)
}

func TestReloadAfterCachedDiscountExpired(t *testing.T) {
	cart := &stubCart{count: 1}
	cfg := testConfig()
	cfg.DiscountCode = "" // force la remise de secours locale (15 min)
	cfg.IsAutomatic = false
	engine, store, _, clock := newTestEngine(cfg, cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	saved, ok := store.SavedDiscount()
	require.True(t, ok)
	require.NotNil(t, saved.ExpiresAt)

	// bien après l'expiration de la remise de secours
	clock.Advance(time.Hour)
	reloaded := NewEngine(cfg, store, cart, &recordedEvents{}, WithClock(clock))
	reloaded.Start()

	assert.Equal(t, StateExpired, reloaded.State())
	assert.True(t, store.Dismissed())
}

func TestFallbackDiscountSynthesized(t *testing.T) {
	cfg := testConfig()
	cfg.DiscountCode = ""
	cart := &stubCart{count: 1}
	store := NewMemorySessionStore()
	events := &recordedEvents{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	engine := NewEngine(cfg, store, cart, events,
		WithClock(clock),
		WithCodeGenerator(func() string { return "FLASHXYZ" }),
	)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)

	require.Len(t, events.shown, 1)
	assert.Equal(t, "FLASHXYZ", events.shown[0].Code)
	assert.False(t, events.shown[0].IsAutomatic)
	assert.Equal(t, 15*60, events.shown[0].RemainingSeconds)

	saved, ok := store.SavedDiscount()
	require.True(t, ok)
	require.NotNil(t, saved.ExpiresAt)
	assert.Equal(t, clock.Now().Add(15*time.Minute), *saved.ExpiresAt)
}

func TestClickApplyWithCode(t *testing.T) {
	cfg := testConfig()
	cfg.IsAutomatic = false
	cart := &stubCart{count: 1}
	engine, store, events, clock := newTestEngine(cfg, cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	engine.ClickApply()

	assert.Equal(t, StateDismissed, engine.State())
	require.Len(t, events.navigated, 1)
	assert.Equal(t, "/discount/SAVE25AB?redirect=/cart", events.navigated[0])
	assert.True(t, store.Applying())

	// retour de la redirection : le drapeau est soldé et le visiteur est
	// renvoyé au panier
	reentry := &recordedEvents{}
	EntryRedirect(store, reentry)
	assert.False(t, store.Applying())
	require.Len(t, reentry.navigated, 1)
	assert.Equal(t, "/cart", reentry.navigated[0])

	// chargement suivant : plus rien à solder, aucune navigation
	EntryRedirect(store, reentry)
	assert.Len(t, reentry.navigated, 1)
}

func TestClickApplyAutomaticGoesStraightToCart(t *testing.T) {
	cart := &stubCart{count: 1}
	engine, store, events, clock := newTestEngine(testConfig(), cart)
	ctx := context.Background()

	engine.Start()
	clock.Advance(2 * time.Minute)
	engine.PollTick(ctx)
	require.Equal(t, StateVisible, engine.State())

	engine.ClickApply()

	require.Len(t, events.navigated, 1)
	assert.Equal(t, "/cart", events.navigated[0])
	assert.False(t, store.Applying())
}

func TestEngineOptionWithCodeGenerator(t *testing.T) {
	gen := func() string { return "AAAA0000" }
	e := NewEngine(testConfig(), NewMemorySessionStore(), &stubCart{}, &recordedEvents{}, WithCodeGenerator(gen))
	assert.Equal(t, "AAAA0000", e.genCode())
}

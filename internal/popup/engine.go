package popup

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"flashoff_back_end/internal/models"
)

// State - état courant du popup pour un visiteur
type State int

const (
	StateIdle      State = iota // session trop jeune, conditions pas encore réunies
	StatePolling                // on vérifie les conditions à chaque tick
	StateVisible                // popup affiché, compte à rebours en cours
	StateDismissed              // fermé par le visiteur, terminal pour la session
	StateExpired                // compte à rebours écoulé, terminal pour la session
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateVisible:
		return "visible"
	case StateDismissed:
		return "dismissed"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Command - action du visiteur relayée à la boucle Run
type Command int

const (
	CmdDismiss Command = iota
	CmdApply
)

// View - ce que le storefront affiche quand le popup apparaît
type View struct {
	Code             string `json:"code"`
	Percentage       int    `json:"percentage"`
	IsAutomatic      bool   `json:"isAutomatic"`
	BarText          string `json:"barText"`
	BackgroundColor  string `json:"backgroundColor"`
	TextColor        string `json:"textColor"`
	Emoji            string `json:"emoji"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// Events - effets visibles côté storefront. L'implémentation WebSocket les
// pousse au navigateur ; les tests les capturent.
type Events interface {
	ShowPopup(view View)
	Tick(remainingSeconds int)
	HidePopup()
	Navigate(url string)
}

// Intervalles fixes du storefront
const (
	pollInterval      = 5 * time.Second
	countdownInterval = time.Second
	fallbackExpiry    = 15 * time.Minute
)

// Engine - machine à états du popup pour UN visiteur. Toutes les méthodes
// sont synchrones et sans goroutine : Run les pilote avec de vraies horloges,
// les tests les appellent directement avec une horloge virtuelle.
type Engine struct {
	cfg     Config
	store   SessionStore
	cart    CartFetcher
	events  Events
	clock   clockwork.Clock
	genCode func() string

	state     State
	remaining int // secondes restantes au compte à rebours
}

// EngineOption configure l'Engine à la construction
type EngineOption func(*Engine)

func WithClock(clock clockwork.Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

func WithCodeGenerator(gen func() string) EngineOption {
	return func(e *Engine) { e.genCode = gen }
}

func NewEngine(cfg Config, store SessionStore, cart CartFetcher, events Events, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:     cfg,
		store:   store,
		cart:    cart,
		events:  events,
		clock:   clockwork.NewRealClock(),
		genCode: generateLocalCode,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() State { return e.state }

// Start initialise la session du visiteur et décide de l'état de départ.
// Un popup fermé reste fermé pour toute la session, rechargements compris.
func (e *Engine) Start() {
	if e.store.Dismissed() {
		e.state = StateDismissed
		return
	}

	now := e.clock.Now()

	if e.store.Shown() {
		// déjà affiché cette session : on le ré-affiche si la remise en
		// cache est encore valable, sinon la session est terminée
		if saved, ok := e.store.SavedDiscount(); ok && saved.IsStillActive(now) {
			e.show(saved)
			return
		}
		e.state = StateExpired
		e.store.SetDismissed(true)
		return
	}

	if _, ok := e.store.SessionStart(); !ok {
		e.store.SetSessionStart(now)
	}
	e.state = StatePolling
}

// PollTick vérifie les conditions d'affichage. Appelé toutes les 5 secondes
// tant que l'état est Polling. Une erreur de panier vaut condition non
// remplie pour ce tick, jamais un plantage.
func (e *Engine) PollTick(ctx context.Context) {
	if e.state != StatePolling {
		return
	}

	now := e.clock.Now()
	start, ok := e.store.SessionStart()
	if !ok {
		e.store.SetSessionStart(now)
		return
	}
	if now.Sub(start) < time.Duration(e.cfg.SessionThreshold)*time.Second {
		return
	}

	if e.cfg.RequireCartItems {
		count, err := e.cart.ItemCount(ctx)
		if err != nil {
			log.Printf("⚠️ Lecture du panier impossible, on réessaiera: %v", err)
			return
		}
		if count == 0 {
			return
		}
	}

	e.show(e.resolveDiscount(now))
}

// resolveDiscount choisit la remise à afficher : cache de session, puis
// remise courante de la configuration, puis remise de secours synthétisée
// localement.
func (e *Engine) resolveDiscount(now time.Time) models.ActiveDiscount {
	if saved, ok := e.store.SavedDiscount(); ok && saved.IsStillActive(now) {
		return saved
	}

	if e.cfg.DiscountCode != "" {
		// remise courante du serveur : l'échéance exacte n'est pas connue
		// côté storefront, le compte à rebours vaut timerDuration
		d := models.ActiveDiscount{
			Code:        e.cfg.DiscountCode,
			Percentage:  e.cfg.DiscountPercentage,
			CreatedAt:   now,
			IsAutomatic: e.cfg.IsAutomatic,
		}
		e.store.SaveDiscount(d)
		return d
	}

	// aucune remise côté serveur : on en fabrique une locale de 15 minutes
	// pour que le popup ne soit jamais vide
	expires := now.Add(fallbackExpiry)
	d := models.ActiveDiscount{
		Code:        e.genCode(),
		Percentage:  e.cfg.DiscountPercentage,
		CreatedAt:   now,
		ExpiresAt:   &expires,
		IsAutomatic: false,
	}
	e.store.SaveDiscount(d)
	return d
}

func (e *Engine) show(d models.ActiveDiscount) {
	e.store.SetShown(true)

	now := e.clock.Now()
	if d.ExpiresAt != nil {
		e.remaining = int(d.ExpiresAt.Sub(now) / time.Second)
		if e.remaining < 0 {
			e.remaining = 0
		}
	} else {
		e.remaining = e.cfg.TimerDuration * 60
	}

	e.state = StateVisible
	e.events.ShowPopup(View{
		Code:             d.Code,
		Percentage:       d.Percentage,
		IsAutomatic:      d.IsAutomatic,
		BarText:          FormatBarText(e.cfg.BarText, d.Percentage),
		BackgroundColor:  e.cfg.BackgroundColor,
		TextColor:        e.cfg.TextColor,
		Emoji:            e.cfg.Emoji,
		RemainingSeconds: e.remaining,
	})
}

// CountdownTick décrémente le compte à rebours. À zéro, le popup se ferme
// définitivement pour la session.
func (e *Engine) CountdownTick() {
	if e.state != StateVisible {
		return
	}
	e.remaining--
	if e.remaining <= 0 {
		e.remaining = 0
		e.state = StateExpired
		e.store.SetDismissed(true)
		e.events.HidePopup()
		return
	}
	e.events.Tick(e.remaining)
}

// Dismiss ferme le popup à la demande du visiteur, pour toute la session
func (e *Engine) Dismiss() {
	if e.state != StateVisible {
		return
	}
	e.state = StateDismissed
	e.store.SetDismissed(true)
	e.events.HidePopup()
}

// ClickApply applique la remise. Une remise automatique n'a rien à
// appliquer, on envoie simplement le visiteur au panier ; un code passe par
// l'URL de partage /discount/ qui le dépose dans le checkout.
func (e *Engine) ClickApply() {
	if e.state != StateVisible {
		return
	}

	d, ok := e.store.SavedDiscount()
	if !ok {
		d = models.ActiveDiscount{Code: e.cfg.DiscountCode, IsAutomatic: e.cfg.IsAutomatic}
	}

	e.state = StateDismissed
	e.store.SetDismissed(true)
	e.events.HidePopup()

	if d.IsAutomatic || d.Code == "" {
		e.events.Navigate("/cart")
		return
	}
	e.store.SetApplying(true)
	e.events.Navigate("/discount/" + d.Code + "?redirect=/cart")
}

// EntryRedirect se joue au chargement de page : si le visiteur revient de
// l'URL /discount/ avec le drapeau d'application en cours, on le solde et
// on le renvoie aussitôt au panier pour boucler le parcours d'application.
func EntryRedirect(store SessionStore, events Events) {
	if store.Applying() {
		store.SetApplying(false)
		events.Navigate("/cart")
	}
}

// Run pilote la machine avec de vraies horloges jusqu'à annulation du
// contexte ou fermeture du canal de commandes. Le ticker de sondage est
// neutralisé (canal nil) dès que le popup est affiché.
func (e *Engine) Run(ctx context.Context, cmds <-chan Command) {
	e.Start()
	if e.state == StateDismissed || e.state == StateExpired {
		return
	}

	pollTicker := e.clock.NewTicker(pollInterval)
	defer pollTicker.Stop()
	countdown := e.clock.NewTicker(countdownInterval)
	defer countdown.Stop()

	pollC := pollTicker.Chan()
	if e.state == StateVisible {
		pollC = nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-pollC:
			e.PollTick(ctx)
			if e.state == StateVisible {
				pollC = nil
			}

		case <-countdown.Chan():
			e.CountdownTick()
			if e.state == StateExpired {
				return
			}

		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			switch cmd {
			case CmdDismiss:
				e.Dismiss()
			case CmdApply:
				e.ClickApply()
			}
			if e.state == StateDismissed {
				return
			}
		}
	}
}

const localCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateLocalCode fabrique le code de la remise de secours, même format
// que les codes d'affichage du serveur
func generateLocalCode() string {
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = localCodeAlphabet[rand.Intn(len(localCodeAlphabet))]
	}
	return "FLASH" + string(suffix)
}

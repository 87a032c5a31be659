package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flashoff_back_end/internal/models"
	"flashoff_back_end/internal/popup"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines : le storefront appelle depuis le
		// domaine de la boutique
		return true
	},
}

// wsEvents pousse les effets du popup au navigateur en JSON
type wsEvents struct {
	conn *websocket.Conn
}

func (e *wsEvents) ShowPopup(view popup.View) {
	e.send(gin.H{"type": "show_popup", "popup": view})
}

func (e *wsEvents) Tick(remainingSeconds int) {
	e.send(gin.H{"type": "tick", "remainingSeconds": remainingSeconds})
}

func (e *wsEvents) HidePopup() {
	e.send(gin.H{"type": "hide_popup"})
}

func (e *wsEvents) Navigate(url string) {
	e.send(gin.H{"type": "navigate", "url": url})
}

func (e *wsEvents) send(payload gin.H) {
	if err := e.conn.WriteJSON(payload); err != nil {
		log.Printf("❌ Erreur envoi WebSocket: %v", err)
	}
}

// PopupWebSocket pilote la machine à états du popup pour un visiteur du
// storefront. Le navigateur relaie les actions (fermeture, application) et
// reçoit les effets (affichage, compte à rebours, navigation).
func (a *API) PopupWebSocket(c *gin.Context) {
	shop := shopFrom(c)

	visitor := c.Query("visitor")
	if visitor == "" {
		visitor = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	store := popup.NewRedisSessionStore(a.Redis, shop, visitor)
	events := &wsEvents{conn: conn}

	// retour éventuel d'une redirection /discount/ : on renvoie au panier
	popup.EntryRedirect(store, events)

	s, err := a.Settings.Get(c.Request.Context(), shop)
	if err != nil {
		log.Printf("⚠️ Réglages illisibles pour %s, popup sur défauts: %v", shop, err)
		s = models.DefaultShopSettings(shop)
	}
	if !s.IsActive {
		conn.WriteJSON(gin.H{"type": "inactive"})
		return
	}

	cfg := popup.ParseConfig(map[string]string{
		"background-color":    s.BackgroundColor,
		"text-color":          s.TextColor,
		"emoji":               s.Emoji,
		"bar-text":            s.BarText,
		"timer-duration":      strconv.Itoa(s.TimerDuration),
		"discount-percentage": strconv.Itoa(s.DiscountPercentage),
		"session-threshold":   strconv.Itoa(s.SessionThreshold),
		"require-cart-items":  strconv.FormatBool(s.RequireCartItems),
		"discount-code":       s.DiscountCode,
		"is-automatic":        strconv.FormatBool(s.IsAutomatic),
	})

	conn.WriteJSON(gin.H{"type": "connected", "visitor": visitor})

	// le lecteur relaie les actions du navigateur vers la boucle du moteur.
	// done débloque un envoi en attente quand la boucle s'arrête la première
	// (expiration, contexte annulé) : sans lui le lecteur fuirait, fermer la
	// connexion ne débloque que ReadJSON, jamais un envoi sur canal.
	cmds := make(chan popup.Command)
	done := make(chan struct{})
	go func() {
		defer close(cmds)
		for {
			var msg struct {
				Type string `json:"type"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			var cmd popup.Command
			switch msg.Type {
			case "dismiss":
				cmd = popup.CmdDismiss
			case "apply":
				cmd = popup.CmdApply
			default:
				continue
			}
			if !forwardCommand(cmds, done, cmd) {
				return
			}
		}
	}()

	engine := popup.NewEngine(cfg, store, popup.NewHTTPCartFetcher(shop), events)
	engine.Run(c.Request.Context(), cmds)
	close(done)

	log.Printf("🔌 Session popup terminée pour %s (état %s)", shop, engine.State())
}

// forwardCommand pousse une commande vers la boucle du moteur, sauf si
// celle-ci s'est déjà arrêtée. Retourne false quand le relais doit cesser.
func forwardCommand(cmds chan<- popup.Command, done <-chan struct{}, cmd popup.Command) bool {
	select {
	case cmds <- cmd:
		return true
	case <-done:
		return false
	}
}

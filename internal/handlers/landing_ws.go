package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"codpage_back_end/internal/middleware"
	"codpage_back_end/internal/models"
	"codpage_back_end/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Page publique : toutes les origines sont acceptées
		return true
	},
}

const wsPingInterval = 30 * time.Second

// wsMessage : message envoyé par le client.
type wsMessage struct {
	Type    string                   `json:"type"`
	Request models.GenerationRequest `json:"request"`
}

// wsConn sérialise les écritures : gorilla/websocket n'accepte qu'un écrivain à la fois.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// GenerateWebSocket diffuse la progression de la génération en temps réel.
// Un nouveau message "generate" annule le run en cours de la même connexion.
func (h *Handler) GenerateWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	gen := h.pipeline.NewGenerator()

	connCtx, closeConn := context.WithCancel(context.Background())
	defer closeConn()

	ip := c.ClientIP()
	hello := gin.H{"type": "connected", "message": "Génération temps réel activée"}
	if left, ok := h.limiter.Remaining(c.Request.Context(), ip); ok {
		hello["remaining"] = left
	}
	if err := ws.send(hello); err != nil {
		return
	}

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				return
			case <-ticker.C:
				if err := ws.ping(); err != nil {
					closeConn()
					return
				}
			}
		}
	}()

	var cancelRun context.CancelFunc = func() {}
	defer func() { cancelRun() }()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("⚠️ WebSocket fermé: %v", err)
			}
			return
		}

		switch msg.Type {
		case "generate":
			// Même quota que POST /generate ; le run en cours n'est pas interrompu
			if d := h.limiter.Take(connCtx, ip); !d.Allowed {
				_ = ws.send(gin.H{
					"type":        "error",
					"success":     false,
					"message":     middleware.LimitMessage(d),
					"retry_after": int(d.RetryAfter.Seconds()),
				})
				continue
			}
			cancelRun()
			var runCtx context.Context
			runCtx, cancelRun = context.WithCancel(connCtx)

			req := msg.Request
			req.ProductURL = strings.TrimSpace(req.ProductURL)
			clampCountdown(&req.Customizations)

			go h.streamRun(runCtx, ws, gen, req)
		case "cancel":
			cancelRun()
		default:
			_ = ws.send(gin.H{"type": "error", "message": "type de message inconnu: " + msg.Type})
		}
	}
}

// streamRun exécute un run et pousse progression puis résultat. Un run annulé
// (remplacé ou connexion fermée) n'envoie rien de plus.
func (h *Handler) streamRun(ctx context.Context, ws *wsConn, gen *pipeline.Generator, req models.GenerationRequest) {
	data, err := gen.Generate(ctx, req, func(p models.GenerationProgress) {
		if ctx.Err() != nil {
			return
		}
		_ = ws.send(gin.H{"type": "progress", "progress": p})
	})
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		body := errorBody(err)
		body["type"] = "error"
		_ = ws.send(body)
		return
	}
	_ = ws.send(gin.H{"type": "result", "success": true, "data": data})
}

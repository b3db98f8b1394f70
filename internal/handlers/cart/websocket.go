package cart

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/response"
	"dryfruit_back_end/internal/services/cart"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Subscriber hands out the Redis channel a user's cart changes are
// published on. A nil PubSub means live sync is off.
type Subscriber interface {
	SubscribeCart(ctx context.Context, userID string) *redis.PubSub
}

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// sameOrigin admits the storefront origin only. Requests without an Origin
// header do not come from a browser page and carry no ambient cookie risk.
func sameOrigin(frontendURL string) func(r *http.Request) bool {
	allowed := strings.TrimRight(frontendURL, "/")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return allowed != "" && strings.EqualFold(strings.TrimRight(origin, "/"), allowed)
	}
}

type pushMessage struct {
	Type string     `json:"type"`
	Cart *cart.View `json:"cart,omitempty"`
}

// GET /api/cart/ws
func (h *Handler) Live(c *gin.Context) {
	if !h.upgrader.CheckOrigin(c.Request) {
		response.Error(c, apperr.Forbidden("Origin not allowed"))
		return
	}
	userID := c.GetString("user_id")
	var sub *redis.PubSub
	if h.live != nil {
		sub = h.live.SubscribeCart(c.Request.Context(), userID)
	}
	if sub == nil {
		response.Error(c, apperr.Upstream("Live cart sync is unavailable", nil))
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ websocket upgrade for %s: %v", userID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// drain client frames so close and pong are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.push(ctx, conn, userID, "connected"); err != nil {
		return
	}

	ch := sub.Channel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != cart.EventUpdated && msg.Payload != cart.EventCleared {
				continue
			}
			if err := h.push(ctx, conn, userID, "cart_"+msg.Payload); err != nil {
				log.Printf("❌ websocket push to %s: %v", userID, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) push(ctx context.Context, conn *websocket.Conn, userID, kind string) error {
	view, err := h.carts.Get(ctx, userID, "")
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(pushMessage{Type: kind, Cart: view})
}

// README: Websocket endpoint; upgrades a registered driver into the offer hub.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zonetaxi/internal/modules/driver"
	"zonetaxi/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type WSHandler struct {
	hub     *notify.Hub
	drivers *driver.Service
}

func NewWSHandler(hub *notify.Hub, drivers *driver.Service) *WSHandler {
	return &WSHandler{hub: hub, drivers: drivers}
}

// Connect blocks for the lifetime of the session.
func (h *WSHandler) Connect(c *gin.Context) {
	d, err := h.drivers.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.hub.Attach(d.ID, conn)
}

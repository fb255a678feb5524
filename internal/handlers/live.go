// internal/handlers/live.go
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/models"
	"github.com/javajoker/clubhub/internal/services"
	"github.com/javajoker/clubhub/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// LiveMessage is one frame pushed to a live client.
type LiveMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clubStateFrame struct {
	Clubs       []models.Club        `json:"clubs"`
	RankedClubs []models.RankingClub `json:"ranked_clubs"`
	Status      SourceStatus         `json:"status"`
}

type clubFrame struct {
	Club    *models.Club `json:"club"`
	Deleted bool         `json:"deleted"`
}

type LiveHandler struct {
	clubService *services.ClubService
	upgrader    websocket.Upgrader
	log         *logrus.Entry
}

// NewLiveHandler accepts upgrades from the given origins; requests without an
// Origin header are always accepted.
func NewLiveHandler(clubService *services.ClubService, allowedOrigins []string) *LiveHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &LiveHandler{
		clubService: clubService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		log: logrus.WithField("component", "live"),
	}
}

// GET /live/clubs
func (h *LiveHandler) StreamClubs(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	lang := utils.GetLangFromContext(c)
	client := newLiveClient(conn, h.log.WithField("stream", "clubs"))

	frame := func(state services.State) LiveMessage {
		return LiveMessage{Type: "state", Data: clubStateFrame{
			Clubs:       state.Clubs,
			RankedClubs: state.RankedClubs,
			Status:      sourceStatus(state, lang),
		}}
	}

	cancel := h.clubService.Watch(func(state services.State) {
		client.send(frame(state))
	})
	defer cancel()

	client.send(frame(h.clubService.State()))
	client.run()
}

// GET /live/clubs/:id
func (h *LiveHandler) StreamClub(c *gin.Context) {
	id := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := newLiveClient(conn, h.log.WithFields(logrus.Fields{"stream": "club", "club_id": id}))

	cancel, err := h.clubService.SubscribeToClub(c.Request.Context(), id, func(club *models.Club) {
		client.send(LiveMessage{Type: "club", Data: clubFrame{Club: club, Deleted: club == nil}})
	})
	if err != nil {
		lang := utils.GetLangFromContext(c)
		client.send(LiveMessage{Type: "error", Data: gin.H{"message": i18n.T(lang, i18n.KeyClubLoadFailed)}})
		client.closeAfterFlush()
		return
	}
	defer cancel()

	client.run()
}

// liveClient owns one connection. All writes go through the write loop.
type liveClient struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
	log  *logrus.Entry
}

func newLiveClient(conn *websocket.Conn, log *logrus.Entry) *liveClient {
	return &liveClient{
		conn: conn,
		out:  make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// send queues msg. A client that falls behind is disconnected.
func (lc *liveClient) send(msg LiveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		lc.log.WithError(err).Error("Failed to encode live message")
		return
	}

	select {
	case <-lc.done:
	case lc.out <- data:
	default:
		lc.log.Warn("Live client too slow; closing")
		lc.close()
	}
}

func (lc *liveClient) close() {
	lc.once.Do(func() {
		close(lc.done)
	})
}

// run blocks until the peer goes away.
func (lc *liveClient) run() {
	lc.log.Info("Live client connected")
	go lc.readLoop()
	lc.writeLoop()
	lc.log.Info("Live client disconnected")
}

func (lc *liveClient) closeAfterFlush() {
	go lc.readLoop()
	lc.close()
	lc.writeLoop()
}

// readLoop discards client frames and keeps the pong deadline fresh.
func (lc *liveClient) readLoop() {
	defer lc.close()

	lc.conn.SetReadLimit(512)
	lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	lc.conn.SetPongHandler(func(string) error {
		return lc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := lc.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (lc *liveClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		lc.conn.Close()
	}()

	for {
		select {
		case data := <-lc.out:
			if err := lc.write(websocket.TextMessage, data); err != nil {
				lc.close()
				return
			}
		case <-ticker.C:
			if err := lc.write(websocket.PingMessage, nil); err != nil {
				lc.close()
				return
			}
		case <-lc.done:
			lc.drain()
			lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			lc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (lc *liveClient) drain() {
	for {
		select {
		case data := <-lc.out:
			if err := lc.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (lc *liveClient) write(messageType int, data []byte) error {
	lc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return lc.conn.WriteMessage(messageType, data)
}

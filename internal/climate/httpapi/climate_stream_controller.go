package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"thermostat-server/internal/climate/httpapi/internal"
	"thermostat-server/internal/climate/usecases"
	"thermostat-server/internal/infra/async"
	"thermostat-server/internal/infra/httpserver"

	"github.com/gorilla/websocket"
)

const (
	_pingPeriod   = 54 * time.Second
	_pongWait     = 60 * time.Second
	_writeTimeout = 10 * time.Second
)

var streamTopics = []async.BrokerTopicName{
	usecases.LocationsTopic,
	usecases.DecisionsTopic,
	usecases.ReportsTopic,
}

func NewClimateStreamController(broker async.InternalBroker, allowedOrigins []string) (*ClimateStreamController, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &ClimateStreamController{
		broker:        broker,
		clients:       make(map[*websocket.Conn]struct{}),
		subscriptions: make(map[async.BrokerTopicName]async.Subscription, len(streamTopics)),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	for _, topic := range streamTopics {
		subscription, err := broker.Subscribe(topic)
		if err != nil {
			c.unsubscribe()
			cancel()
			return nil, err
		}
		c.subscriptions[topic] = subscription
	}

	go c.run()

	return c, nil
}

var _ httpserver.Controller = (*ClimateStreamController)(nil)

// ClimateStreamController pushes location and decision events to websocket
// clients as they are published on the internal broker.
type ClimateStreamController struct {
	broker        async.InternalBroker
	upgrader      websocket.Upgrader
	clients       map[*websocket.Conn]struct{}
	clientsMux    sync.RWMutex
	subscriptions map[async.BrokerTopicName]async.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	shutdownOnce  sync.Once
}

func (c *ClimateStreamController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/climate", c.handleWebSocket())
}

func (c *ClimateStreamController) ClientCount() int {
	c.clientsMux.RLock()
	defer c.clientsMux.RUnlock()
	return len(c.clients)
}

func (c *ClimateStreamController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := c.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		c.clientsMux.Lock()
		c.clients[conn] = struct{}{}
		total := len(c.clients)
		c.clientsMux.Unlock()
		slog.Info("climate stream client registered",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("total_clients", total),
		)

		go c.handlePing(conn)
		go c.handleClient(conn)
	}
}

// handleClient drains the client until it goes away. Inbound frames are
// ignored.
func (c *ClimateStreamController) handleClient(conn *websocket.Conn) {
	defer c.unregister(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(_pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(_pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.String("error", err.Error()))
			} else {
				slog.Debug("websocket connection closed", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *ClimateStreamController) handlePing(conn *websocket.Conn) {
	ticker := time.NewTicker(_pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			// WriteControl may run concurrently with the broadcast writer
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(_writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (c *ClimateStreamController) unregister(conn *websocket.Conn) {
	c.clientsMux.Lock()
	_, ok := c.clients[conn]
	delete(c.clients, conn)
	total := len(c.clients)
	c.clientsMux.Unlock()

	conn.Close()
	if ok {
		slog.Info("climate stream client unregistered", slog.Int("total_clients", total))
	}
}

func (c *ClimateStreamController) run() {
	defer close(c.done)

	locations := c.subscriptions[usecases.LocationsTopic].Receiver
	decisions := c.subscriptions[usecases.DecisionsTopic].Receiver
	reports := c.subscriptions[usecases.ReportsTopic].Receiver

	for locations != nil || decisions != nil || reports != nil {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-locations:
			if !ok {
				locations = nil
				continue
			}
			c.broadcast(usecases.LocationsTopic, msg)
		case msg, ok := <-decisions:
			if !ok {
				decisions = nil
				continue
			}
			c.broadcast(usecases.DecisionsTopic, msg)
		case msg, ok := <-reports:
			if !ok {
				reports = nil
				continue
			}
			c.broadcast(usecases.ReportsTopic, msg)
		}
	}
}

// broadcast is the only data writer of every connection.
func (c *ClimateStreamController) broadcast(topic async.BrokerTopicName, msg async.BrokerMessage) {
	frame := internal.ClimateMessage{
		Type:      msg.Event,
		Topic:     string(topic),
		Timestamp: time.Now().UTC(),
		Data:      msg.Value,
	}

	c.clientsMux.Lock()
	defer c.clientsMux.Unlock()
	for client := range c.clients {
		client.SetWriteDeadline(time.Now().Add(_writeTimeout))
		if err := client.WriteJSON(frame); err != nil {
			slog.Error("failed to write message to websocket client", slog.String("error", err.Error()))
			client.Close()
			delete(c.clients, client)
		}
	}
}

func (c *ClimateStreamController) unsubscribe() {
	for topic, subscription := range c.subscriptions {
		if err := c.broker.Unsubscribe(topic, subscription); err != nil {
			slog.Debug("unsubscribing climate stream", slog.String("topic", string(topic)), slog.String("error", err.Error()))
		}
	}
}

func (c *ClimateStreamController) Shutdown() {
	c.shutdownOnce.Do(func() {
		slog.Info("shutting down climate stream controller")
		c.cancel()
		<-c.done
		c.unsubscribe()

		c.clientsMux.Lock()
		for client := range c.clients {
			client.Close()
			delete(c.clients, client)
		}
		c.clientsMux.Unlock()
	})
}

// originChecker accepts same-host requests and the configured CORS origins.
// A "*" entry accepts everything.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

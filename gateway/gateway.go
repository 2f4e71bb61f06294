// Package gateway is a local HTTP view of a session: JSON endpoints for the
// state and the log, a few actions, a websocket feed, and /metrics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/client"
	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/metrics"
)

// Session is what the gateway needs of a *client.Client.
type Session interface {
	State() game.GameState
	Store() *game.Store
	Events() *eventlog.Log
	Links() *client.Links
	Status() client.Status
	Endpoint() string
	Board() *board.Topology

	StartGame(players []comms.NewPlayer) error
	RollDice(value int) error
	EndTurn() error
	RequestState()
	Reset()
	Connect()
	Close()
}

type Gateway struct {
	s      Session
	log    zerolog.Logger
	router *gin.Engine
}

func New(s Session, log zerolog.Logger) *Gateway {
	metrics.RegisterMetrics()

	g := &Gateway{
		s:   s,
		log: log.With().Str("gw", "web").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), g.accessLog)

	a := r.Group("/api", g.sameOrigin)
	a.GET("/state", g.getState)
	a.GET("/log", g.getLog)
	a.GET("/status", g.getStatus)
	a.GET("/board", g.getBoard)
	a.POST("/start", g.start)
	a.POST("/roll", g.roll)
	a.POST("/end", g.end)
	a.POST("/refresh", g.action("get_state", s.RequestState))
	a.POST("/reset", g.action("reset", s.Reset))
	a.POST("/connect", g.action("connect", s.Connect))
	a.POST("/close", g.action("close", s.Close))
	r.GET("/ws", g.serveWS)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g.router = r
	return g
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Run serves on addr until ctx is done.
func (g *Gateway) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	g.log.Info().Msgf("web listening on http://%v", ln.Addr())

	s := &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: time.Second * 10,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(sctx)
	}
}

func (g *Gateway) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	g.log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}

// sameOrigin turns away browser requests made by pages from other sites.
// Requests with no Origin header, like curl's, pass.
func (g *Gateway) sameOrigin(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" {
		c.Next()
		return
	}
	u, err := url.Parse(origin)
	if err != nil || !strings.EqualFold(u.Host, c.Request.Host) {
		g.log.Warn().Str("origin", origin).Str("path", c.Request.URL.Path).Msg("cross-origin request refused")
		c.AbortWithStatusJSON(http.StatusForbidden, errorView{Code: "FORBIDDEN", Error: "cross-origin request"})
		return
	}
	c.Next()
}

func (g *Gateway) getState(c *gin.Context) {
	c.JSON(http.StatusOK, g.s.State())
}

func (g *Gateway) getLog(c *gin.Context) {
	c.JSON(http.StatusOK, g.s.Events().Entries())
}

type statusView struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
	client.ConnectionStatus
}

func (g *Gateway) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusView{
		Status:           g.s.Status().String(),
		Endpoint:         g.s.Endpoint(),
		ConnectionStatus: g.s.Links().Get(),
	})
}

type shortcutView struct {
	Cell      int    `json:"cell"`
	Direction string `json:"direction"`
	Target    int    `json:"target"`
}

type boardView struct {
	Size      int            `json:"size"`
	Rows      [][]int        `json:"rows"`
	Shortcuts []shortcutView `json:"shortcuts"`
}

func (g *Gateway) getBoard(c *gin.Context) {
	b := g.s.Board()
	v := boardView{
		Size:      b.Size(),
		Rows:      b.Rows(),
		Shortcuts: []shortcutView{},
	}
	for cell := range b.Shortcuts() {
		sc := b.Classify(cell)
		v.Shortcuts = append(v.Shortcuts, shortcutView{cell, sc.Direction.String(), sc.Target})
	}
	sort.Slice(v.Shortcuts, func(i, j int) bool { return v.Shortcuts[i].Cell < v.Shortcuts[j].Cell })
	c.JSON(http.StatusOK, v)
}

type startRequest struct {
	Players []comms.NewPlayer `json:"players"`
}

func (g *Gateway) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("%w: %v", game.ErrBadRequest, err))
		return
	}
	if err := g.s.StartGame(req.Players); err != nil {
		g.log.Error().Err(err).Msg("start game error")
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.String(http.StatusAccepted, "ok: %s", comms.CmdStartGame)
}

type rollRequest struct {
	Value int `json:"value"`
}

// roll takes an optional value; without one the dice are rolled here.
func (g *Gateway) roll(c *gin.Context) {
	var req rollRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, fmt.Errorf("%w: %v", game.ErrBadRequest, err))
		return
	}
	if req.Value == 0 {
		req.Value = client.RandomRoll()
	}
	if err := g.s.RollDice(req.Value); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusAccepted, req)
}

func (g *Gateway) end(c *gin.Context) {
	if err := g.s.EndTurn(); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.String(http.StatusAccepted, "ok: %s", comms.CmdEndTurn)
}

type errorView struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// fail answers with the error's code, so a caller can get the same error
// back with game.ReError.
func fail(c *gin.Context, status int, err error) {
	v := errorView{Code: "INTERNAL", Error: err.Error()}
	var gerr *game.GameError
	if errors.As(err, &gerr) {
		v.Code = gerr.ErrorCode()
	}
	c.JSON(status, v)
}

func (g *Gateway) action(name string, f func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		f()
		c.String(http.StatusAccepted, "ok: %s", name)
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/rmcs/broadcast"
	"github.com/wfunc/rmcs/config"
	"github.com/wfunc/rmcs/game"
	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/monitor"
	"github.com/wfunc/rmcs/persistence"
	"github.com/wfunc/rmcs/room"
	gamerpc "github.com/wfunc/rmcs/rpc"
	"github.com/wfunc/rmcs/services"
	"github.com/wfunc/rmcs/session"
	"github.com/wfunc/rmcs/timer"
)

// Options wires a GameServer. Zero values disable the optional parts.
type Options struct {
	HTTPAddress    string
	RPCAddress     string
	PublicBaseURL  string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	RoomTTL        time.Duration
	SweepInterval  time.Duration
	Database       persistence.Database
	Shuffler       game.Shuffler
}

func OptionsFromConfig(cfg *config.Config, db persistence.Database) Options {
	return Options{
		HTTPAddress:    cfg.Server.HTTPAddress,
		RPCAddress:     cfg.Server.RPCAddress,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		RoomTTL:        cfg.Game.RoomTTL,
		SweepInterval:  cfg.Game.SweepInterval,
		Database:       db,
	}
}

type GameServer struct {
	opts           Options
	engine         *gin.Engine
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	archive        *services.RoundArchive
	monitor        *monitor.Monitor
	rpcServer      *gamerpc.Server
	timers         *timer.TimerManager
}

func NewGameServer(opts Options) *GameServer {
	if opts.Database == nil {
		opts.Database = persistence.NewMemory()
	}

	s := &GameServer{
		opts:           opts,
		sessionManager: session.NewManager(),
		archive:        services.NewRoundArchive(opts.Database),
		monitor:        monitor.NewMonitor("rmcs"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager, broadcast.SessionHooks{
		OnDrop: func(*session.Session) { s.monitor.DecWatchers() },
	})

	roomOpts := []room.Option{
		room.WithBroadcaster(s.broadcaster),
		room.WithRecorder(s.archive),
		room.WithObserver(s.monitor),
	}
	if opts.Shuffler != nil {
		roomOpts = append(roomOpts, room.WithShuffler(opts.Shuffler))
	}
	s.roomManager = room.NewRoomManager(roomOpts...)

	s.engine = s.routes()
	s.httpServer = &http.Server{
		Addr:              opts.HTTPAddress,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the HTTP routes, mainly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.engine
}

func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

func (s *GameServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.opts.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{
				"Content-Type",
				"Upgrade",
				"Connection",
				"Sec-WebSocket-Key",
				"Sec-WebSocket-Version",
				"Sec-WebSocket-Extensions",
				"Sec-WebSocket-Protocol",
			},
			MaxAge: 12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "healthy") })
	r.GET("/metrics", gin.WrapH(s.monitor.Handler()))

	api := r.Group("/", s.rateLimiter(), s.observeRequests())
	api.POST("/room/create", s.handleCreateRoom)
	api.POST("/room/join-multiple", s.handleJoinMultiple)
	api.GET("/room/players/:roomId", s.handleGetPlayers)
	api.POST("/room/assign/:roomId", s.handleAssignRoles)
	api.POST("/room/leave/:roomId", s.handleLeave)
	api.GET("/room/qr/:roomId", s.handleQRCode)
	api.GET("/role/me/:roomId/:playerId", s.handleViewRole)
	api.POST("/guess/:roomId", s.handleSubmitGuess)
	api.GET("/result/:roomId", s.handleResult)
	api.GET("/leaderboard/:roomId", s.handleLeaderboard)
	api.GET("/history/:roomId", s.handleHistory)

	r.GET("/ws/:roomId", s.handleWebSocket)
	return r
}

// Start serves HTTP (and RPC when configured) until Shutdown.
func (s *GameServer) Start() error {
	if s.opts.RPCAddress != "" {
		rpcServer, err := gamerpc.NewServer(s.opts.RPCAddress, gamerpc.NewRoomService(s.roomManager))
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer
		go s.rpcServer.Start()
	}

	s.startSweeper()

	logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddress)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// startSweeper expires idle rooms when a TTL is configured.
func (s *GameServer) startSweeper() {
	if s.opts.RoomTTL <= 0 {
		return
	}
	interval := s.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	s.timers = timer.NewTimerManager(timer.DefaultResolution)
	ttl := s.opts.RoomTTL
	s.timers.AddTimer(interval, interval, func() {
		if expired := s.roomManager.ExpireIdle(ttl); len(expired) > 0 {
			logger.Log.Infof("Expired %d idle rooms", len(expired))
		}
	})
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	if s.timers != nil {
		s.timers.Stop()
	}
	for _, sess := range s.sessionManager.All() {
		if s.sessionManager.Remove(sess.GetID()) {
			s.monitor.DecWatchers()
			_ = sess.Close()
		}
	}
	if cerr := s.archive.Close(); cerr != nil && err == nil {
		err = cerr
	}
	logger.Log.Infof("Game server stopped after %s", s.monitor.Uptime().Round(time.Second))
	return err
}

package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/rmcs/logger"
	"github.com/wfunc/rmcs/room"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and serves the given receivers.
func NewServer(addr string, services ...interface{}) (*Server, error) {
	srv := rpc.NewServer()
	for _, svc := range services {
		if err := srv.Register(svc); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests. It returns when Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomService exposes read-only room views to back-office tools.
// Methods follow the net/rpc signature: exported args, pointer reply, error.
type RoomService struct {
	rooms *room.Manager
}

func NewRoomService(rooms *room.Manager) *RoomService {
	return &RoomService{rooms: rooms}
}

type RoomArgs struct {
	RoomID string
}

type LeaderboardReply struct {
	Leaderboard []room.Standing
}

type ResultReply struct {
	Result room.ResultView
}

type PlayersReply struct {
	Players room.PlayersView
}

func (rs *RoomService) Leaderboard(args *RoomArgs, reply *LeaderboardReply) error {
	r, err := rs.rooms.Lookup(args.RoomID)
	if err != nil {
		return err
	}
	reply.Leaderboard = r.Leaderboard()
	return nil
}

func (rs *RoomService) Result(args *RoomArgs, reply *ResultReply) error {
	r, err := rs.rooms.Lookup(args.RoomID)
	if err != nil {
		return err
	}
	res, err := r.Result()
	if err != nil {
		return err
	}
	reply.Result = res
	return nil
}

func (rs *RoomService) Players(args *RoomArgs, reply *PlayersReply) error {
	r, err := rs.rooms.Lookup(args.RoomID)
	if err != nil {
		return err
	}
	reply.Players = r.Players()
	return nil
}

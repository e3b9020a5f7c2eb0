package rooms

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// RoomServiceName is the fully-qualified name of the room service
	RoomServiceName = "tunequiz.room.v1.RoomService"

	ResolveRoomProcedure = "/" + RoomServiceName + "/ResolveRoom"
	IsHostProcedure      = "/" + RoomServiceName + "/IsHost"
	CreateRoomProcedure  = "/" + RoomServiceName + "/CreateRoom"
	JoinRoomProcedure    = "/" + RoomServiceName + "/JoinRoom"
	ServerTimeProcedure  = "/" + RoomServiceName + "/ServerTime"
)

// RoomsApp defines what the service layer needs from the rooms application
type RoomsApp interface {
	ResolveRoom(ctx context.Context, code string) (uuid.UUID, error)
	IsHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error)
	CreateRoom(ctx context.Context, host models.Player) (*models.Room, error)
	JoinRoom(ctx context.Context, code string, player models.Player) (uuid.UUID, error)
}

// Service exposes the rooms app over connect-rpc using well-known message types
type Service struct {
	app   RoomsApp
	clock clockwork.Clock
}

// NewService creates a new rooms service
func NewService(app RoomsApp) *Service {
	return &Service{app: app, clock: clockwork.NewRealClock()}
}

// WithClock replaces the clock ServerTime reads
func (s *Service) WithClock(clock clockwork.Clock) *Service {
	s.clock = clock
	return s
}

// Handler returns the mount path and handler for every room procedure
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ResolveRoomProcedure, connect.NewUnaryHandler(ResolveRoomProcedure, s.ResolveRoom, opts...))
	mux.Handle(IsHostProcedure, connect.NewUnaryHandler(IsHostProcedure, s.IsHost, opts...))
	mux.Handle(CreateRoomProcedure, connect.NewUnaryHandler(CreateRoomProcedure, s.CreateRoom, opts...))
	mux.Handle(JoinRoomProcedure, connect.NewUnaryHandler(JoinRoomProcedure, s.JoinRoom, opts...))
	mux.Handle(ServerTimeProcedure, connect.NewUnaryHandler(ServerTimeProcedure, s.ServerTime, opts...))
	return "/" + RoomServiceName + "/", mux
}

// ResolveRoom maps a room code to its id
func (s *Service) ResolveRoom(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.StringValue], error) {
	roomID, err := s.app.ResolveRoom(ctx, req.Msg.GetValue())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(wrapperspb.String(roomID.String())), nil
}

// IsHost reports whether a participant hosts a room.
// Request fields: room_id, participant_id.
func (s *Service) IsHost(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[wrapperspb.BoolValue], error) {
	fields := req.Msg.GetFields()
	roomID, err := uuid.Parse(fields["room_id"].GetStringValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	isHost, err := s.app.IsHost(ctx, roomID, fields["participant_id"].GetStringValue())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(wrapperspb.Bool(isHost)), nil
}

// CreateRoom opens a room hosted by the caller.
// Request fields: participant_id, display_name, avatar. Response fields: room_id, code.
func (s *Service) CreateRoom(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	room, err := s.app.CreateRoom(ctx, playerFromFields(req.Msg))
	if err != nil {
		return nil, toConnectError(err)
	}

	res, err := structpb.NewStruct(map[string]interface{}{
		"room_id": room.ID.String(),
		"code":    room.Code,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(res), nil
}

// JoinRoom adds the caller to a room.
// Request fields: code, participant_id, display_name, avatar. Response: room id.
func (s *Service) JoinRoom(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[wrapperspb.StringValue], error) {
	code := req.Msg.GetFields()["code"].GetStringValue()
	roomID, err := s.app.JoinRoom(ctx, code, playerFromFields(req.Msg))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(wrapperspb.String(roomID.String())), nil
}

// ServerTime returns the service's wall clock so clients can estimate their
// skew against the started_at stamps hosts put in ROUND_START.
func (s *Service) ServerTime(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[timestamppb.Timestamp], error) {
	return connect.NewResponse(timestamppb.New(s.clock.Now())), nil
}

func playerFromFields(msg *structpb.Struct) models.Player {
	fields := msg.GetFields()
	return models.Player{
		ID:          fields["participant_id"].GetStringValue(),
		DisplayName: fields["display_name"].GetStringValue(),
		Avatar:      fields["avatar"].GetStringValue(),
	}
}

func playerToFields(player models.Player) map[string]interface{} {
	return map[string]interface{}{
		"participant_id": player.ID,
		"display_name":   player.DisplayName,
		"avatar":         player.Avatar,
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrInvalidRoomCode), errors.Is(err, ErrInvalidParticipant):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrRoomCodeTaken):
		return connect.NewError(connect.CodeResourceExhausted, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

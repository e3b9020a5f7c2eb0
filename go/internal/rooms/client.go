package rooms

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/tunequiz/go/internal/models"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the room service; it satisfies the host elector's RoomStore
type Client struct {
	resolve    *connect.Client[wrapperspb.StringValue, wrapperspb.StringValue]
	isHost     *connect.Client[structpb.Struct, wrapperspb.BoolValue]
	createRoom *connect.Client[structpb.Struct, structpb.Struct]
	joinRoom   *connect.Client[structpb.Struct, wrapperspb.StringValue]
	serverTime *connect.Client[emptypb.Empty, timestamppb.Timestamp]
}

// NewClient creates a room service client for baseURL (e.g. http://localhost:8080)
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		resolve:    connect.NewClient[wrapperspb.StringValue, wrapperspb.StringValue](httpClient, baseURL+ResolveRoomProcedure, opts...),
		isHost:     connect.NewClient[structpb.Struct, wrapperspb.BoolValue](httpClient, baseURL+IsHostProcedure, opts...),
		createRoom: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+CreateRoomProcedure, opts...),
		joinRoom:   connect.NewClient[structpb.Struct, wrapperspb.StringValue](httpClient, baseURL+JoinRoomProcedure, opts...),
		serverTime: connect.NewClient[emptypb.Empty, timestamppb.Timestamp](httpClient, baseURL+ServerTimeProcedure, opts...),
	}
}

// GetRoomIDByCode resolves a room code through the service
func (c *Client) GetRoomIDByCode(ctx context.Context, roomCode string) (uuid.UUID, error) {
	res, err := c.resolve.CallUnary(ctx, connect.NewRequest(wrapperspb.String(roomCode)))
	if err != nil {
		return uuid.Nil, fromConnectError(err)
	}
	return uuid.Parse(res.Msg.GetValue())
}

// IsParticipantHost asks the service whether participantID hosts roomID
func (c *Client) IsParticipantHost(ctx context.Context, roomID uuid.UUID, participantID string) (bool, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"room_id":        roomID.String(),
		"participant_id": participantID,
	})
	if err != nil {
		return false, err
	}
	res, err := c.isHost.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return false, fromConnectError(err)
	}
	return res.Msg.GetValue(), nil
}

// CreateRoom opens a room hosted by host
func (c *Client) CreateRoom(ctx context.Context, host models.Player) (*models.Room, error) {
	req, err := structpb.NewStruct(playerToFields(host))
	if err != nil {
		return nil, err
	}
	res, err := c.createRoom.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, fromConnectError(err)
	}

	fields := res.Msg.GetFields()
	roomID, err := uuid.Parse(fields["room_id"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid room id in response: %w", err)
	}
	return &models.Room{ID: roomID, Code: fields["code"].GetStringValue()}, nil
}

// JoinRoom joins player to the room with code
func (c *Client) JoinRoom(ctx context.Context, code string, player models.Player) (uuid.UUID, error) {
	fields := playerToFields(player)
	fields["code"] = code
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return uuid.Nil, err
	}
	res, err := c.joinRoom.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return uuid.Nil, fromConnectError(err)
	}
	return uuid.Parse(res.Msg.GetValue())
}

// ServerTime reads the room service's wall clock
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	res, err := c.serverTime.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return time.Time{}, fromConnectError(err)
	}
	if err := res.Msg.CheckValid(); err != nil {
		return time.Time{}, fmt.Errorf("invalid server time: %w", err)
	}
	return res.Msg.AsTime(), nil
}

// ClockSkew estimates how far local is ahead of the service, assuming the
// reply was stamped halfway through the round trip.
func (c *Client) ClockSkew(ctx context.Context, local func() time.Time) (time.Duration, error) {
	sent := local()
	server, err := c.ServerTime(ctx)
	if err != nil {
		return 0, err
	}
	received := local()
	midpoint := sent.Add(received.Sub(sent) / 2)
	return midpoint.Sub(server), nil
}

func fromConnectError(err error) error {
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %v", ErrRoomNotFound, err)
	case connect.CodeInvalidArgument:
		return fmt.Errorf("%w: %v", ErrInvalidRoomCode, err)
	default:
		return err
	}
}

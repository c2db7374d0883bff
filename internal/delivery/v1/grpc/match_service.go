package grpc

import (
	"context"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MatchServiceServer — серверная часть facematch.v1.MatchService.
// Сообщения описаны well-known типами, поэтому сгенерированный код не нужен.
type MatchServiceServer interface {
	GetMatches(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.ListValue, error)
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: "facematch.v1.MatchService",
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetMatches",
			Handler:    getMatchesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "facematch/v1/match_service.proto",
}

func getMatchesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServiceServer).GetMatches(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/facematch.v1.MatchService/GetMatches",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchServiceServer).GetMatches(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

type MatchService struct {
	matchUC usecase.MatchUC
	logger  logger.Logger
}

func NewMatchService(matchUC usecase.MatchUC, logger logger.Logger) *MatchService {
	return &MatchService{matchUC: matchUC, logger: logger}
}

func (g *MatchService) GetMatches(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.ListValue, error) {
	const op = "grpc.GetMatches"

	matches, err := g.matchUC.GetMatches(ctx, req.GetValue())
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return toGRPCMatches(matches), nil
}

func toGRPCMatch(m *domain.MatchResult) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"person_id": structpb.NewNumberValue(float64(m.PersonID)),
		"name":      structpb.NewStringValue(m.Name),
		"distance":  structpb.NewNumberValue(m.Distance),
		"box": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"x":      structpb.NewNumberValue(m.Box.X),
			"y":      structpb.NewNumberValue(m.Box.Y),
			"width":  structpb.NewNumberValue(m.Box.Width),
			"height": structpb.NewNumberValue(m.Box.Height),
		}}),
	}})
}

func toGRPCMatches(matches []domain.MatchResult) *structpb.ListValue {
	res := &structpb.ListValue{Values: make([]*structpb.Value, len(matches))}
	for i := range matches {
		res.Values[i] = toGRPCMatch(&matches[i])
	}

	return res
}

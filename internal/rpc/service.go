package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/RowanDark/playfair/internal/logging"
	"github.com/RowanDark/playfair/internal/playfair"
)

// Service implements CipherServer on top of a shared cipher cache.
type Service struct {
	ciphers *playfair.Cache
	audit   *logging.AuditLogger
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache shares c with other transports so key squares are built once.
func WithCache(c *playfair.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.ciphers = c
		}
	}
}

// WithAuditLogger records every call in the audit trail.
func WithAuditLogger(l *logging.AuditLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.audit = l
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service with a private cache unless WithCache is given.
func NewService(opts ...Option) *Service {
	s := &Service{
		ciphers: playfair.NewCache(0),
		audit:   logging.Discard(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs the cipher service and a health service reporting it as
// serving. The returned health server lets callers flip the status on shutdown.
func Register(s *grpc.Server, svc CipherServer) *health.Server {
	RegisterCipherServer(s, svc)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

type request struct {
	keyword string
	rows    []string
	text    string
	opts    []playfair.Option
}

func parseRequest(in *structpb.Struct) (request, error) {
	var req request
	for name, v := range in.GetFields() {
		switch name {
		case "keyword", "text", "filler":
			sv, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return request{}, fmt.Errorf("field %s must be a string", name)
			}
			switch name {
			case "keyword":
				req.keyword = sv.StringValue
			case "text":
				req.text = sv.StringValue
			case "filler":
				runes := []rune(strings.ToUpper(strings.TrimSpace(sv.StringValue)))
				if len(runes) != 1 {
					return request{}, fmt.Errorf("field filler must be a single letter, got %q", sv.StringValue)
				}
				req.opts = append(req.opts, playfair.WithFiller(runes[0]))
			}
		case "fold_j":
			bv, ok := v.GetKind().(*structpb.Value_BoolValue)
			if !ok {
				return request{}, errors.New("field fold_j must be a boolean")
			}
			req.opts = append(req.opts, playfair.WithFoldJ(bv.BoolValue))
		case "grid":
			lv, ok := v.GetKind().(*structpb.Value_ListValue)
			if !ok {
				return request{}, errors.New("field grid must be a list of rows")
			}
			for i, row := range lv.ListValue.GetValues() {
				sv, ok := row.GetKind().(*structpb.Value_StringValue)
				if !ok {
					return request{}, fmt.Errorf("grid row %d must be a string", i)
				}
				req.rows = append(req.rows, sv.StringValue)
			}
		default:
			return request{}, fmt.Errorf("unknown field %s", name)
		}
	}
	if req.rows != nil && req.keyword != "" {
		return request{}, errors.New("fields keyword and grid are mutually exclusive")
	}
	return req, nil
}

// cipherFor resolves the key square from either the keyword or the grid rows.
func (s *Service) cipherFor(req request) (*playfair.Cipher, error) {
	if req.rows == nil {
		return s.ciphers.Get(req.keyword, req.opts...)
	}
	grid, err := playfair.ParseGrid(req.rows)
	if err != nil {
		return nil, err
	}
	return s.ciphers.GetGrid(grid, req.opts...)
}

// Encrypt implements CipherServer.
func (s *Service) Encrypt(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	return s.transform(ctx, in, logging.EventEncrypt, (*playfair.Cipher).Encrypt)
}

// Decrypt implements CipherServer.
func (s *Service) Decrypt(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	return s.transform(ctx, in, logging.EventDecrypt, (*playfair.Cipher).Decrypt)
}

func (s *Service) transform(ctx context.Context, in *structpb.Struct, event logging.EventType, fn func(*playfair.Cipher, string) (string, error)) (*wrapperspb.StringValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	req, err := parseRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c, err := s.cipherFor(req)
	if err != nil {
		return nil, s.fail(string(event), req, err)
	}
	out, err := fn(c, req.text)
	if err != nil {
		return nil, s.fail(string(event), req, err)
	}
	s.emit(logging.AuditEvent{
		EventType: event,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"keyword": req.keyword, "input_len": len(req.text), "transport": "grpc"},
	})
	return wrapperspb.String(out), nil
}

// Grid implements CipherServer. The response carries "rows" and "filler".
func (s *Service) Grid(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	req, err := parseRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c, err := s.cipherFor(req)
	if err != nil {
		return nil, s.fail("grid", req, err)
	}
	rows := c.Grid().Rows()
	values := make([]any, len(rows))
	for i, row := range rows {
		values[i] = row
	}
	out, err := structpb.NewStruct(map[string]any{
		"rows":   values,
		"filler": string(c.Filler()),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Service) fail(operation string, req request, err error) error {
	s.emit(logging.AuditEvent{
		EventType: logging.EventOperationFailed,
		Decision:  logging.DecisionDeny,
		Reason:    err.Error(),
		Metadata:  map[string]any{"keyword": req.keyword, "operation": operation, "transport": "grpc"},
	})
	return toStatus(err)
}

func (s *Service) emit(event logging.AuditEvent) {
	if err := s.audit.Emit(event); err != nil {
		s.logger.Warn("audit emit failed", "event", event.EventType, "error", err)
	}
}

// toStatus maps cipher errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, playfair.ErrUnknownLetter),
		errors.Is(err, playfair.ErrEmptyMessage),
		errors.Is(err, playfair.ErrInvalidAlphabetSize),
		errors.Is(err, playfair.ErrMalformedGrid):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

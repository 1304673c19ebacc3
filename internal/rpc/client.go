package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Request is the client-side view of a cipher call. Zero Filler and nil
// FoldJ leave the server defaults in place. Grid, when set, replaces the
// keyword with explicit key square rows.
type Request struct {
	Keyword string
	Grid    []string
	Text    string
	Filler  rune
	FoldJ   *bool
}

func (r Request) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"keyword": r.Keyword,
		"text":    r.Text,
	}
	if r.Filler != 0 {
		fields["filler"] = string(r.Filler)
	}
	if r.FoldJ != nil {
		fields["fold_j"] = *r.FoldJ
	}
	if r.Grid != nil {
		rows := make([]any, len(r.Grid))
		for i, row := range r.Grid {
			rows[i] = row
		}
		fields["grid"] = rows
	}
	return structpb.NewStruct(fields)
}

// Client calls the playfair.v1.Cipher service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Encrypt encrypts req.Text under req.Keyword on the server.
func (c *Client) Encrypt(ctx context.Context, req Request, opts ...grpc.CallOption) (string, error) {
	return c.call(ctx, encryptMethod, req, opts...)
}

// Decrypt decrypts req.Text under req.Keyword on the server.
func (c *Client) Decrypt(ctx context.Context, req Request, opts ...grpc.CallOption) (string, error) {
	return c.call(ctx, decryptMethod, req, opts...)
}

// Grid returns the key square rows for req.Keyword.
func (c *Client) Grid(ctx context.Context, req Request, opts ...grpc.CallOption) ([]string, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, gridMethod, in, out, opts...); err != nil {
		return nil, err
	}
	list := out.GetFields()["rows"].GetListValue().GetValues()
	rows := make([]string, len(list))
	for i, v := range list {
		rows[i] = v.GetStringValue()
	}
	return rows, nil
}

func (c *Client) call(ctx context.Context, method string, req Request, opts ...grpc.CallOption) (string, error) {
	in, err := req.toStruct()
	if err != nil {
		return "", err
	}
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

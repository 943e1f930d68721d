package bracket

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

func TestNew_MaximumRPCInEachBracketReached(t *testing.T) {
	urls := make([]string, MaxRPCInEachBracket+1)
	for i := range urls {
		urls[i] = "http://127.0.0.1:0"
	}
	roles := []RoleConfig{
		{Role: RoleView, SubBrackets: []URLConfig{{Key: "primary", URLs: urls}}},
	}
	_, err := New(context.Background(), roles, false, zerolog.Nop())
	var tooMany *rpcerr.MaximumRPCInEachBracketReached
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected MaximumRPCInEachBracketReached, got %v", err)
	}
}

func TestNew_AtLeastOneValidRPCRequired(t *testing.T) {
	roles := []RoleConfig{
		{Role: RoleView, SubBrackets: []URLConfig{{Key: "primary", URLs: []string{"http://127.0.0.1:1"}}}},
	}
	_, err := New(context.Background(), roles, false, zerolog.Nop())
	var none *rpcerr.AtLastProvideOneValidRPCInEachBracket
	if !errors.As(err, &none) {
		t.Fatalf("expected AtLastProvideOneValidRPCInEachBracket, got %v", err)
	}
}

func TestNew_NoRolesProvided(t *testing.T) {
	_, err := New(context.Background(), nil, false, zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error when no roles are configured")
	}
}

package authctx

import (
	"context"
	"testing"
)

type claims struct{ Subject string }

func TestSetGet(t *testing.T) {
	ctx := Set(context.Background(), &claims{Subject: "voxbot"})
	got, ok := Get[*claims](ctx)
	if !ok || got.Subject != "voxbot" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if _, ok := Get[string](ctx); ok {
		t.Error("wrong type must not match")
	}
	if _, ok := Get[*claims](context.Background()); ok {
		t.Error("empty context must not match")
	}
}

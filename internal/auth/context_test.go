// ABOUTME: Unit tests for authentication context functions
// ABOUTME: Tests Identity propagation through context.Context

package auth

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext(empty) = %+v, want nil", got)
	}

	ctx := WithIdentity(context.Background(), &Identity{Subject: "ci-agent"})
	got := FromContext(ctx)
	if got == nil || got.Subject != "ci-agent" {
		t.Errorf("FromContext() = %+v, want subject ci-agent", got)
	}

	wrongType := context.WithValue(context.Background(), identityKey{}, "not-an-identity")
	if got := FromContext(wrongType); got != nil {
		t.Errorf("FromContext(wrong type) = %+v, want nil", got)
	}
}

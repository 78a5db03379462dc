package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/esiagate/esiagate/internal/service"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestAuthorizationBegin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, authorizeURL, err := env.authorization.Begin(ctx, service.BeginRequest{
		Scope: "openid fullname openid",
		Nonce: "nonce-1",
	})
	assert.NilError(t, err)

	assert.Equal(t, entry.ClientID, "test-client")
	assert.Equal(t, entry.RedirectURI, testRedirectURI)
	assert.Equal(t, entry.Provider, "esia_oauth")
	assert.Equal(t, entry.ResponseType, "code")
	assert.Equal(t, entry.Scope, "openid fullname")
	assert.Equal(t, entry.Nonce, "nonce-1")
	assert.Assert(t, entry.State != "")
	assert.Assert(t, entry.CodeVerifier != "")
	assert.Assert(t, !entry.IsCompleted)

	u, err := url.Parse(authorizeURL)
	assert.NilError(t, err)

	query := u.Query()
	assert.Equal(t, u.Path, "/auth/authorize")
	assert.Equal(t, query.Get("state"), entry.State)
	assert.Equal(t, query.Get("client_id"), "test-client")
	assert.Equal(t, query.Get("provider"), "esia_oauth")
	assert.Equal(t, query.Get("nonce"), "nonce-1")
	assert.Equal(t, query.Get("response_type"), "code")
	assert.Equal(t, query.Get("scope"), "openid fullname")
	assert.Equal(t, query.Get("code_challenge_method"), "S256")
	assert.Assert(t, query.Get("code_challenge") != "")

	stored, err := env.authorization.Get(ctx, entry.State)
	assert.NilError(t, err)
	assert.Equal(t, stored.CodeVerifier, entry.CodeVerifier)
}

func TestAuthorizationBeginGeneratesUniqueState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	second, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	assert.Assert(t, first.State != second.State)
	assert.Assert(t, first.Nonce != "")
	assert.Assert(t, first.Nonce != second.Nonce)
}

func TestAuthorizationBeginValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  service.BeginRequest
	}{
		{name: "unsupported provider", req: service.BeginRequest{Provider: "google"}},
		{name: "unsupported response type", req: service.BeginRequest{ResponseType: "token"}},
		{name: "unknown scope", req: service.BeginRequest{Scope: "openid telepathy"}},
		{name: "unknown namespaced scope", req: service.BeginRequest{Scope: "http://esia.gosuslugi.ru/telepathy?org_oid=1"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := env.authorization.Begin(ctx, test.req)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestAuthorizationBeginAcceptsNamespacedScope(t *testing.T) {
	env := newTestEnv(t)

	entry, _, err := env.authorization.Begin(context.Background(), service.BeginRequest{
		Scope:    "openid http://esia.gosuslugi.ru/org_grps?org_oid=42",
		Provider: "ebs_oauth",
	})
	assert.NilError(t, err)
	assert.Equal(t, entry.Scope, "openid http://esia.gosuslugi.ru/org_grps?org_oid=42")
	assert.Equal(t, entry.Provider, "ebs_oauth")
}

func TestAuthorizationComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	completed, err := env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: "code-1"})
	assert.NilError(t, err)
	assert.Assert(t, completed.IsCompleted)
	assert.Equal(t, completed.AuthorizationCode, "code-1")
	assert.Assert(t, completed.CompletedAt != nil)

	_, err = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: "code-2"})
	assert.ErrorIs(t, err, service.ErrConflict)

	stored, err := env.authorization.Get(ctx, entry.State)
	assert.NilError(t, err)
	assert.Equal(t, stored.AuthorizationCode, "code-1")

	found, err := env.authorization.FindByCode(ctx, "code-1")
	assert.NilError(t, err)
	assert.Equal(t, found.State, entry.State)
}

func TestAuthorizationCompleteConcurrentCallbacks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	const callbacks = 16

	var wg sync.WaitGroup
	errs := make([]error, callbacks)

	for i := range callbacks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: fmt.Sprintf("code-%d", i)})
		}()
	}

	wg.Wait()

	succeeded := -1
	conflicts := 0

	for i, err := range errs {
		switch {
		case err == nil:
			assert.Equal(t, succeeded, -1, "more than one callback completed the request")
			succeeded = i
		case errors.Is(err, service.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Assert(t, succeeded >= 0)
	assert.Equal(t, conflicts, callbacks-1)

	stored, err := env.authorization.Get(ctx, entry.State)
	assert.NilError(t, err)
	assert.Equal(t, stored.AuthorizationCode, fmt.Sprintf("code-%d", succeeded))
}

func TestAuthorizationCompleteWithProviderError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	completed, err := env.authorization.Complete(ctx, service.CompleteRequest{
		State:            entry.State,
		Error:            "access_denied",
		ErrorDescription: "user cancelled",
	})
	assert.NilError(t, err)
	assert.Assert(t, completed.IsCompleted)
	assert.Equal(t, completed.Error, "access_denied")
	assert.Equal(t, completed.ErrorDescription, "user cancelled")
	assert.Equal(t, completed.AuthorizationCode, "")
}

func TestAuthorizationCompleteUnknownState(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.authorization.Complete(context.Background(), service.CompleteRequest{State: "missing", Code: "code"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAuthorizationCompleteRequiresCodeOrError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, _, err := env.authorization.Begin(ctx, service.BeginRequest{})
	assert.NilError(t, err)

	_, err = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State})
	assert.ErrorIs(t, err, service.ErrValidation)

	// the state is still usable
	_, err = env.authorization.Complete(ctx, service.CompleteRequest{State: entry.State, Code: "code"})
	assert.NilError(t, err)
}

func TestFindByCodeIgnoresPending(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.authorization.FindByCode(context.Background(), "never-issued")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.authorization.FindByCode(context.Background(), "")
	assert.Assert(t, is.ErrorIs(err, service.ErrValidation))
}

// Package mocks provides gomock implementations of the client's ports for tests.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockTokenStore(ctrl)
//	store.EXPECT().Get(gomock.Any()).Return("token", true, nil)
package mocks

// Generate mock for TokenStore interface from internal/ports package.
// This creates MockTokenStore with methods: Get, Set, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/medplus/medplus-client/internal/ports TokenStore

// Generate mock for SignatureVerifier interface from internal/ports package.
// This creates MockSignatureVerifier with methods: Verify
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=signature_verifier_mock.go github.com/medplus/medplus-client/internal/ports SignatureVerifier

// Generate mock for Requester interface from internal/gateway package.
// This creates MockRequester with methods: Do
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=requester_mock.go github.com/medplus/medplus-client/internal/gateway Requester

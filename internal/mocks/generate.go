// Package mocks provides gomock implementations of the session ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// Generated files are committed; regenerate after interface changes with:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	idp := mocks.NewMockIdentityService(ctrl)
//	idp.EXPECT().Me(gomock.Any()).Return(domainauth.MeResult{}, errors.New("offline"))
package mocks

// Generate mock for IdentityService interface from internal/ports package.
// This creates MockIdentityService with methods: Login, Register, Logout, Me
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_service_mock.go github.com/target/jobboard-portal/internal/ports IdentityService

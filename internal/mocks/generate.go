// Package mocks holds gomock doubles for the ports the use-case services depend on.
//
// To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_store_mock.go github.com/nikolayk812/partyshop/internal/port ProfileStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=address_lookup_mock.go github.com/nikolayk812/partyshop/internal/port AddressLookup

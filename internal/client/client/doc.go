// Package client is the Remote Gateway: the client side of the
// gophsync.v1.SyncService.
//
// Client is the transport-agnostic contract used by the sync engine.
// GRPCClient implements it over gRPC, keeps the access token obtained by
// Login and injects it into every call through a unary interceptor.
//
// # Error Handling
//
// Failed remote calls return a *RemoteError whose Kind tells the sync
// engine what to do with the entry: KindDuplicate (the change is already
// applied), KindUnauthenticated (cannot succeed under the current session)
// or KindOther. Transport failures additionally match ErrUnavailable with
// errors.Is. Use Classify instead of inspecting messages.
package client

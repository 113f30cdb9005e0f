package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// EntityTodo is the only entity tag replicated by the engine.
const EntityTodo = "todo"

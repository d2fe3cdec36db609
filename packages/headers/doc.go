// Package headers provides the ordered name/value header store shared by
// requests, request content and responses.
//
// Names are case-sensitive and the last write for a name wins, while
// iteration keeps the order in which each distinct name was first added.
// Values are never parsed or validated.
//
// Typed constructors (NewAccept, NewAuthorization, NewContentType, ...)
// validate their inputs up front, and the matching accessors (Accept,
// Authorization, ContentType, ...) read a typed header back out of a store
// without caching anything.
package headers

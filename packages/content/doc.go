// Package content models request and response bodies.
//
// Request bodies are a closed set of variants identified by Kind: JSON,
// Form (application/x-www-form-urlencoded), Raw strings, GZipped wrappers
// and Custom user-defined bodies. Every variant carries its own headers and
// always declares a Content-Type. Serialize produces the textual body; for a
// GZipped body this is the inner body's text, compression itself happens
// when the transport writes the request.
//
// Response bodies are plain decoded strings with their headers. Deserialize
// picks a decoder from the response media type: the JSON family decodes
// through the Serializer, anything else yields the zero value.
package content

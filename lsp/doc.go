// Package lsp contains the Language Server Protocol data types and method
// names the server understands. It mirrors the wire representation of the
// lifecycle messages (initialize, initialized, shutdown, exit and the
// $/-prefixed housekeeping notifications) while keeping the surface
// Go-friendly: exported structs with json tags and a closed Method
// enumeration.
//
// The package is free of transport logic. The stdio transport frames bytes,
// the jsonrpc extractor pulls out the method name, and lspservice switches on
// the Method value returned by ParseMethod:
//
//	switch lsp.ParseMethod(msg.Method) {
//	case lsp.MethodInitialize:
//	    // decode msg.Params into lsp.InitializeParams
//	case lsp.MethodUnknown:
//	    // reply MethodNotFound
//	}
//
// # Method Names
//
// Method is a small integer enumeration rather than a string so that dispatch
// is an exhaustive switch and parsing a method name out of a borrowed byte
// slice does not allocate.
package lsp

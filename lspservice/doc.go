// Package lspservice implements the server side of the LSP lifecycle on top
// of messages produced by the jsonrpc extractor.
//
// A Server is immutable configuration (server info, advertised capabilities,
// logger). Everything that changes over a connection, such as whether
// initialize or shutdown has been seen, lives in a Session that the transport
// creates once and passes to every Dispatch call:
//
//	srv := lspservice.NewServer(lspservice.WithServerInfo(lsp.ServerInfo{Name: "solbot-lsp", Version: "0.1.0"}))
//	sess := lspservice.NewSession()
//	res := srv.Dispatch(ctx, sess, msg)
//	if res.Response != nil { /* write it */ }
//	if res.Status == lspservice.StatusExit { /* stop, exit with res.ExitCode */ }
//
// Lifecycle rules
//
//	before initialize : requests fail with ServerNotInitialized, notifications are dropped
//	initialize        : params decoded, InitializeResult returned, second call rejected
//	shutdown          : replies null, later requests fail with InvalidRequest
//	exit              : StatusExit with code 0 after shutdown, 1 otherwise
//	unknown method    : MethodNotFound for requests, ignored for notifications
package lspservice

// Package stdio implements the single-connection language server transport
// over stdin/stdout. Editors spawn the server as a child process and exchange
// Content-Length framed JSON-RPC messages on its standard streams.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Sessions         : One lspservice.Session per Serve call (memory only)
//	Framing          : "Content-Length: N\r\n\r\n" + N bytes of JSON
//	Concurrency      : Strictly sequential; one message in flight
//
// Options allow supplying alternate io.Reader / io.Writer, a custom logger,
// a metrics recorder, the extraction policy and the frame size limit.
//
// Example:
//
//	srv := lspservice.NewServer(
//	    lspservice.WithServerInfo(lsp.ServerInfo{Name: "solbot-lsp", Version: "0.1.0"}),
//	)
//	h := stdio.NewHandler(srv)
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
//
// Stdout carries protocol traffic only; log to a file or stderr.
package stdio

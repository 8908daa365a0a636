package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Handler processes one control command.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts control connections until context cancellation or listener
// close, answering each with a single newline-delimited JSON response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept control connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

// serveConn answers exactly one request on the connection. Malformed and
// unknown commands are rejected here so handlers only see protocol verbs.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	reply := func(resp Response) {
		_ = json.NewEncoder(conn).Encode(resp)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		reply(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if !req.Command.Known() {
		reply(Response{OK: false, Error: fmt.Sprintf("unknown command: %s", req.Command)})
		return
	}

	reply(handler.Handle(ctx, req))
}

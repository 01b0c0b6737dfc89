package router

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"hashring/internal/ring"
)

// Server answers routing questions about a ring over TCP. One command per
// line; responses use +/-ERR/*N prefixes:
//
//	ROUTE <key>           +<name> <addr>
//	ROUTEN <key> <k>      *k followed by one +<name> <addr> line each
//	ADD <name> <addr>     +OK added <name>
//	REMOVE <name> <addr>  +OK removed <name>
//	NODES                 *n followed by one +<name> <addr> line each
//	STATS                 +members=<n> entries=<m> replicas=<r>
//	PING                  +PONG
//	QUIT                  +BYE
type Server struct {
	ring *ring.Ring

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server that routes against r.
func NewServer(r *ring.Ring) *Server {
	return &Server{
		ring:  r,
		conns: make(map[net.Conn]struct{}),
	}
}

// Start listens on addr and accepts connections in the background.
// It returns once the listener is bound.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Printf("[ringd] Listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Stop closes the listener and every open connection, then waits for the
// handlers to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	s.wg.Wait()
	log.Printf("[ringd] Stopped")
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("[ringd] accept: %v", err)
			continue
		}

		s.mu.Lock()
		if s.ln == nil {
			// Stop ran between Accept and here
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.forget(conn)

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	_ = writeLine(w, "+OK ringd ready")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToUpper(parts[0])

		switch cmd {
		case "PING":
			_ = writeLine(w, "+PONG")

		case "QUIT":
			_ = writeLine(w, "+BYE")
			return

		case "ROUTE":
			if len(parts) != 2 {
				_ = writeLine(w, "-ERR usage: ROUTE key")
				continue
			}
			if node, ok := s.ring.GetNode(parts[1]); ok {
				_ = writeLine(w, fmt.Sprintf("+%s %s", node.Name, node.Addr))
			} else {
				_ = writeLine(w, "-ERR no nodes on the ring")
			}

		case "ROUTEN":
			if len(parts) != 3 {
				_ = writeLine(w, "-ERR usage: ROUTEN key count")
				continue
			}
			k, err := strconv.Atoi(parts[2])
			if err != nil || k < 1 {
				_ = writeLine(w, "-ERR count must be a positive integer")
				continue
			}
			nodes := s.ring.PreferenceList(parts[1], k)
			_ = writeLine(w, fmt.Sprintf("*%d", len(nodes)))
			for _, node := range nodes {
				_ = writeLine(w, fmt.Sprintf("+%s %s", node.Name, node.Addr))
			}

		case "ADD":
			if len(parts) != 3 {
				_ = writeLine(w, "-ERR usage: ADD name addr")
				continue
			}
			node := ring.Node{Name: parts[1], Addr: parts[2]}
			s.ring.AddNode(node)
			_ = writeLine(w, fmt.Sprintf("+OK added %s", node.Name))

		case "REMOVE":
			if len(parts) != 3 {
				_ = writeLine(w, "-ERR usage: REMOVE name addr")
				continue
			}
			node := ring.Node{Name: parts[1], Addr: parts[2]}
			s.ring.RemoveNode(node)
			_ = writeLine(w, fmt.Sprintf("+OK removed %s", node.Name))

		case "NODES":
			nodes := s.ring.GetNodes()
			_ = writeLine(w, fmt.Sprintf("*%d", len(nodes)))
			for _, node := range nodes {
				_ = writeLine(w, fmt.Sprintf("+%s %s", node.Name, node.Addr))
			}

		case "STATS":
			_ = writeLine(w, fmt.Sprintf("+members=%d entries=%d replicas=%d",
				len(s.ring.GetNodes()), s.ring.Size(), s.ring.Replicas()))

		default:
			_ = writeLine(w, "-ERR unknown command")
		}
	}
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line + "\n"); err != nil {
		return err
	}
	return w.Flush()
}

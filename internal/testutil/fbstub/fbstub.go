// Package fbstub is an in-process framed server for exercising clients
// against scripted responses.
package fbstub

import (
	"net"
	"sync"
	"testing"

	"github.com/danmuck/fishbowl/internal/protocol/frame"
)

// LogoutOK is the default reply once the script runs out.
const LogoutOK = `<FbiXml><Ticket><Key>ABC</Key></Ticket><FbiMsgsRs statusCode="1010"/></FbiXml>`

// Reply is one scripted response.
type Reply struct {
	Body []byte
	// Fragment splits the framed reply into writes of this many bytes.
	Fragment int
	// Silent sends nothing so the client hits its read deadline.
	Silent bool
	// PrefixOnly sends the length prefix and then stalls.
	PrefixOnly bool
}

func Text(body string) Reply { return Reply{Body: []byte(body)} }

// Server answers each received frame with the next scripted reply.
type Server struct {
	ln       net.Listener
	mu       sync.Mutex
	replies  []Reply
	requests [][]byte
	accepted int
	conns    map[net.Conn]struct{}
	fallback Reply
	wg       sync.WaitGroup
}

// Start listens on a loopback port and stops when the test ends.
func Start(t testing.TB, replies ...Reply) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fbstub listen: %v", err)
	}
	s := &Server{
		ln:       ln,
		replies:  replies,
		conns:    make(map[net.Conn]struct{}),
		fallback: Text(LogoutOK),
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Host() string { return "127.0.0.1" }

func (s *Server) Port() int { return s.ln.Addr().(*net.TCPAddr).Port }

func (s *Server) Addr() string { return s.ln.Addr().String() }

// Push appends replies to the script.
func (s *Server) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// SetFallback replaces the reply used once the script is exhausted.
func (s *Server) SetFallback(r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = r
}

// Requests returns copies of every payload received so far.
func (s *Server) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.requests))
	copy(out, s.requests)
	return out
}

// Accepted counts connections the server has accepted.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Close stops accepting, drops open connections and waits for handlers.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		payload, err := frame.ReadFrame(conn, frame.DefaultLimits())
		if err != nil {
			return
		}
		reply := s.next(payload)
		if reply.Silent {
			continue
		}
		if err := write(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) next(payload []byte) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, payload)
	if len(s.replies) == 0 {
		return s.fallback
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r
}

func write(conn net.Conn, r Reply) error {
	packed, err := frame.Pack(r.Body, frame.DefaultLimits())
	if err != nil {
		return err
	}
	if r.PrefixOnly {
		_, err := conn.Write(packed[:frame.PrefixLen])
		return err
	}
	if r.Fragment <= 0 {
		_, err := conn.Write(packed)
		return err
	}
	for i := 0; i < len(packed); i += r.Fragment {
		end := i + r.Fragment
		if end > len(packed) {
			end = len(packed)
		}
		if _, err := conn.Write(packed[i:end]); err != nil {
			return err
		}
	}
	return nil
}

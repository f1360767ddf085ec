package session

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/protocol/transport"
	"github.com/danmuck/fishbowl/internal/testutil/fbstub"
	"github.com/danmuck/fishbowl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

const loginOK = `<FbiXml><Ticket><Key>ABC</Key></Ticket><FbiMsgsRs statusCode="1000"><LoginRs statusCode="1000"/></FbiMsgsRs></FbiXml>`

func testConfig(logger zerolog.Logger, srv *fbstub.Server) Config {
	cfg := DefaultConfig()
	cfg.Logger = logger
	cfg.Transport.Host = srv.Host()
	cfg.Transport.Port = srv.Port()
	cfg.Transport.Retries = 0
	cfg.Transport.Timeout = time.Second
	cfg.Transport.Logger = logger
	return cfg
}

func connect(t *testing.T, logger zerolog.Logger, replies ...fbstub.Reply) (*Session, *fbstub.Server) {
	t.Helper()
	srv := fbstub.Start(t, append([]fbstub.Reply{fbstub.Text(loginOK)}, replies...)...)
	s := New(testConfig(logger, srv))
	if err := s.Connect(context.Background(), "admin", "password"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return s, srv
}

func TestConnectLogsInAndStoresKey(t *testing.T) {
	logger := testlog.Start(t)
	s, srv := connect(t, logger)
	if !s.Connected() || s.Key() != "ABC" || s.Username() != "admin" {
		t.Fatalf("unexpected session state: connected=%v key=%q user=%q", s.Connected(), s.Key(), s.Username())
	}
	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests got=%d want=1", len(reqs))
	}
	login := string(reqs[0])
	for _, want := range []string{"<LoginRq>", "<UserName>admin</UserName>", "<UserPassword>X03MO1qnZdYdgyfeuILPmQ==</UserPassword>", "<IAID>22</IAID>"} {
		if !strings.Contains(login, want) {
			t.Fatalf("login payload missing %q: %s", want, login)
		}
	}
	if strings.Contains(login, ">password<") {
		t.Fatalf("plaintext password sent: %s", login)
	}
}

func TestCloseLogsOutWithKeyThenDisconnects(t *testing.T) {
	logger := testlog.Start(t)
	s, srv := connect(t, logger)
	if err := s.Close(false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.Connected() || s.Key() != "" {
		t.Fatalf("expected disconnected session without key")
	}
	reqs := srv.Requests()
	if len(reqs) != 2 {
		t.Fatalf("requests got=%d want=2", len(reqs))
	}
	logout := string(reqs[1])
	if !strings.Contains(logout, "<Key>ABC</Key>") || !strings.Contains(logout, "LogoutRq") {
		t.Fatalf("unexpected logout payload: %s", logout)
	}
}

func TestCloseWhenNotConnected(t *testing.T) {
	testlog.Start(t)
	s := New(DefaultConfig())
	if err := s.Close(false); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := s.Close(true); err != nil {
		t.Fatalf("skipErrors close should succeed, got %v", err)
	}
}

func TestCloseReportsUnexpectedLogoutStatus(t *testing.T) {
	logger := testlog.Start(t)
	s, _ := connect(t, logger, fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"/></FbiXml>`))
	err := s.Close(false)
	var statusErr *codec.StatusError
	if !errors.As(err, &statusErr) || statusErr.Expected != codec.LoggedOff {
		t.Fatalf("expected logout status error, got %v", err)
	}
	if s.Connected() || s.Key() != "" {
		t.Fatalf("session should be disconnected after failed logout")
	}
	if err := s.Close(false); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("second close should report not connected, got %v", err)
	}
}

type failingCloseConn struct {
	net.Conn
}

func (c failingCloseConn) Close() error {
	_ = c.Conn.Close()
	return errors.New("close exploded")
}

func TestCloseStreamErrorStillDisconnects(t *testing.T) {
	logger := testlog.Start(t)
	srv := fbstub.Start(t, fbstub.Text(loginOK))
	cfg := testConfig(logger, srv)
	cfg.Transport.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		var d net.Dialer
		raw, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		return failingCloseConn{raw}, nil
	}
	s := New(cfg)
	if err := s.Connect(context.Background(), "admin", "password"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := s.Close(false)
	if err == nil || !strings.Contains(err.Error(), "close exploded") {
		t.Fatalf("expected stream close error, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("session should be disconnected even when close fails")
	}
}

func TestCloseSkipErrorsSuppresses(t *testing.T) {
	logger := testlog.Start(t)
	s, _ := connect(t, logger, fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1164"/></FbiXml>`))
	if err := s.Close(true); err != nil {
		t.Fatalf("expected suppressed error, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("session should be disconnected")
	}
}

func TestConnectRejectedLogin(t *testing.T) {
	logger := testlog.Start(t)
	srv := fbstub.Start(t, fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"><LoginRs statusCode="1100" statusMessage="Unknown login"/></FbiMsgsRs></FbiXml>`))
	s := New(testConfig(logger, srv))
	err := s.Connect(context.Background(), "admin", "wrong")
	var statusErr *codec.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != "1100" {
		t.Fatalf("expected status 1100, got %v", err)
	}
	if !errors.Is(err, codec.ErrStatus) {
		t.Fatalf("status error should match ErrStatus")
	}
	if s.Connected() || s.Key() != "" {
		t.Fatalf("failed login must leave session disconnected")
	}
	if got := len(srv.Requests()); got != 1 {
		t.Fatalf("no logout expected without a key, requests got=%d", got)
	}
}

func TestConnectWithoutKey(t *testing.T) {
	logger := testlog.Start(t)
	srv := fbstub.Start(t, fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"><LoginRs statusCode="1000"/></FbiMsgsRs></FbiXml>`))
	s := New(testConfig(logger, srv))
	err := s.Connect(context.Background(), "admin", "password")
	if !errors.Is(err, ErrNoLoginKey) || !errors.Is(err, codec.ErrStatus) {
		t.Fatalf("expected ErrNoLoginKey, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("session should be disconnected")
	}
}

func TestConnectMinimalResponses(t *testing.T) {
	logger := testlog.Start(t)
	srv := fbstub.Start(t, fbstub.Text(`<FbiXml><Key>ABC</Key><loginRs statusCode="1000"/></FbiXml>`))
	s := New(testConfig(logger, srv))
	if err := s.Connect(context.Background(), "admin", "password"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.Key() != "ABC" || !s.Connected() {
		t.Fatalf("key got=%q connected=%v", s.Key(), s.Connected())
	}

	srv2 := fbstub.Start(t, fbstub.Text(`<FbiXml><AddInventoryRs statusCode="1000"/></FbiXml>`))
	s2 := New(testConfig(logger, srv2))
	err := s2.Connect(context.Background(), "admin", "password")
	if !errors.Is(err, codec.ErrStatus) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if s2.Connected() {
		t.Fatalf("session should be disconnected")
	}
}

func TestConnectUnreachable(t *testing.T) {
	logger := testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	cfg := DefaultConfig()
	cfg.Logger = logger
	cfg.Transport.Host = "127.0.0.1"
	cfg.Transport.Port = port
	cfg.Transport.Retries = 0
	s := New(cfg)
	err = s.Connect(context.Background(), "admin", "password")
	var connErr *transport.ConnectionError
	if !errors.As(err, &connErr) || connErr.Attempts != 1 {
		t.Fatalf("expected ConnectionError after one attempt, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("session should not be connected")
	}
}

func TestReconnectClosesExistingSession(t *testing.T) {
	logger := testlog.Start(t)
	s, srv := connect(t, logger)
	srv.Push(fbstub.Text(fbstub.LogoutOK), fbstub.Text(strings.Replace(loginOK, "ABC", "DEF", 1)))
	if err := s.Connect(context.Background(), "admin", "password"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if s.Key() != "DEF" {
		t.Fatalf("key got=%q want=DEF", s.Key())
	}
	if srv.Accepted() != 2 {
		t.Fatalf("accepted got=%d want=2", srv.Accepted())
	}
	if !strings.Contains(string(srv.Requests()[1]), "LogoutRq") {
		t.Fatalf("expected logout before reconnect")
	}
}

func TestSendWhenNotConnected(t *testing.T) {
	testlog.Start(t)
	s := New(DefaultConfig())
	if _, err := s.Send(codec.SimpleRequest("", "UOMRq", nil)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSendRequestSingleReturnsFirstChild(t *testing.T) {
	logger := testlog.Start(t)
	s, srv := connect(t, logger, fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"><PartGetRs statusCode="1000"><Part><Num>B201</Num></Part><Extra/></PartGetRs></FbiMsgsRs></FbiXml>`))
	node, err := s.SendRequest(Call{
		Name:         "PartGetRq",
		Value:        codec.Fields{{Name: "Number", Value: "B201"}},
		ResponseNode: "PartGetRs",
	})
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if node.Tag != "Part" || node.SelectElement("Num").Text() != "B201" {
		t.Fatalf("unexpected node: %s", codec.Render(node))
	}
	req := string(srv.Requests()[1])
	if !strings.Contains(req, "<Key>ABC</Key>") || !strings.Contains(req, "<PartGetRq><Number>B201</Number></PartGetRq>") {
		t.Fatalf("unexpected request payload: %s", req)
	}
}

func TestSendRequestMultipleAndEmpty(t *testing.T) {
	logger := testlog.Start(t)
	s, _ := connect(t, logger,
		fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"><UOMRs statusCode="1000"><UOM><UOMID>1</UOMID></UOM><UOM><UOMID>2</UOMID></UOM></UOMRs></FbiMsgsRs></FbiXml>`),
		fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"><UOMRs statusCode="1000"/></FbiMsgsRs></FbiXml>`),
		fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1000"/></FbiXml>`),
	)
	node, err := s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs", Multiple: true})
	if err != nil {
		t.Fatalf("multiple: %v", err)
	}
	if got := len(node.SelectElements("UOM")); got != 2 {
		t.Fatalf("uom count got=%d want=2", got)
	}
	node, err = s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs"})
	if err != nil || !codec.IsEmpty(node) {
		t.Fatalf("childless single should yield empty placeholder, got %v err=%v", node, err)
	}
	node, err = s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs", Multiple: true})
	if err != nil || !codec.IsEmpty(node) {
		t.Fatalf("missing response node should yield empty placeholder, got %v err=%v", node, err)
	}
}

func TestSendRequestStatusErrors(t *testing.T) {
	logger := testlog.Start(t)
	failing := `<FbiXml><FbiMsgsRs statusCode="1000"><ProductGetRs statusCode="3001" statusMessage="Product not found"/></FbiMsgsRs></FbiXml>`
	s, _ := connect(t, logger,
		fbstub.Text(failing),
		fbstub.Text(failing),
		fbstub.Text(`<FbiXml><FbiMsgsRs statusCode="1001"/></FbiXml>`),
	)
	_, err := s.SendRequest(Call{Name: "ProductGetRq", ResponseNode: "ProductGetRs"})
	var statusErr *codec.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != "3001" || statusErr.Message != "Product not found" {
		t.Fatalf("expected 3001 status error, got %v", err)
	}
	node, err := s.SendRequest(Call{Name: "ProductGetRq", ResponseNode: "ProductGetRs", SilenceErrors: true})
	if err != nil || !codec.IsEmpty(node) {
		t.Fatalf("silenced error should yield empty placeholder, got %v err=%v", node, err)
	}
	_, err = s.SendRequest(Call{Name: "ProductGetRq", ResponseNode: "ProductGetRs"})
	if !errors.As(err, &statusErr) || statusErr.Code != "1001" || statusErr.Node != codec.NodeResponses {
		t.Fatalf("expected envelope status error, got %v", err)
	}
	if !s.Connected() {
		t.Fatalf("status errors must not disconnect the session")
	}
}

func TestSendRequestFragmentedResponse(t *testing.T) {
	logger := testlog.Start(t)
	body := `<FbiXml><FbiMsgsRs statusCode="1000"><UOMRs statusCode="1000"><UOM><Name>Each</Name></UOM></UOMRs></FbiMsgsRs></FbiXml>`
	s, _ := connect(t, logger, fbstub.Reply{Body: []byte(body), Fragment: 3})
	node, err := s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs"})
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if node.SelectElement("Name").Text() != "Each" {
		t.Fatalf("unexpected node: %s", codec.Render(node))
	}
}

func TestTimeoutDisconnectsSession(t *testing.T) {
	logger := testlog.Start(t)
	cases := []struct {
		name           string
		reply          fbstub.Reply
		lengthReceived bool
	}{
		{name: "silent", reply: fbstub.Reply{Silent: true}},
		{name: "prefix only", reply: fbstub.Reply{Body: []byte("<FbiXml/>"), PrefixOnly: true}, lengthReceived: true},
	}
	for _, tc := range cases {
		srv := fbstub.Start(t, fbstub.Text(loginOK), tc.reply)
		cfg := testConfig(logger, srv)
		cfg.Transport.Timeout = 100 * time.Millisecond
		s := New(cfg)
		if err := s.Connect(context.Background(), "admin", "password"); err != nil {
			t.Fatalf("%s connect: %v", tc.name, err)
		}
		_, err := s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs"})
		var timeout *transport.TimeoutError
		if !errors.As(err, &timeout) || timeout.LengthReceived != tc.lengthReceived {
			t.Fatalf("%s: expected timeout lengthReceived=%v, got %v", tc.name, tc.lengthReceived, err)
		}
		if s.Connected() || s.Key() != "" {
			t.Fatalf("%s: timeout must leave session disconnected", tc.name)
		}
		if _, err := s.Send(codec.SimpleRequest("", "UOMRq", nil)); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("%s: expected ErrNotConnected after timeout, got %v", tc.name, err)
		}
	}
}

func TestObjectCodecSession(t *testing.T) {
	logger := testlog.Start(t)
	srv := fbstub.Start(t,
		fbstub.Text(`{"FbiJson":{"Ticket":{"Key":"XYZ"},"FbiMsgsRs":{"statusCode":1000,"LoginRs":{"statusCode":1000}}}}`),
		fbstub.Text(`{"FbiJson":{"FbiMsgsRs":{"statusCode":1000,"UOMRs":{"statusCode":1000,"UOM":[{"Name":"Each"},{"Name":"Box"}]}}}}`),
		fbstub.Text(`{"FbiJson":{"FbiMsgsRs":{"statusCode":1010}}}`),
	)
	cfg := testConfig(logger, srv)
	cfg.Codec = codec.NewObjectCodec()
	s := New(cfg)
	if err := s.Connect(context.Background(), "admin", "password"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.Key() != "XYZ" {
		t.Fatalf("key got=%q want=XYZ", s.Key())
	}
	node, err := s.SendRequest(Call{Name: "UOMRq", ResponseNode: "UOMRs", Multiple: true})
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	uoms := node.SelectElements("UOM")
	if len(uoms) != 2 || uoms[1].SelectElement("Name").Text() != "Box" {
		t.Fatalf("unexpected uoms: %s", codec.Render(node))
	}
	if err := s.Close(false); err != nil {
		t.Fatalf("close: %v", err)
	}
	login := string(srv.Requests()[0])
	if !strings.HasPrefix(login, `{"FbiJson":{"Ticket":{"Key":""},"FbiMsgsRq":{"LoginRq":{`) {
		t.Fatalf("unexpected object login payload: %s", login)
	}
}

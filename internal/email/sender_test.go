package email

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSMTPSenderDefaults(t *testing.T) {
	s := NewSMTPSender("", "")
	require.Equal(t, "localhost:1025", s.Addr)
	require.Equal(t, "planner@localhost", s.From)

	s = NewSMTPSender("mail:2525", "me@example.com")
	require.Equal(t, "mail:2525", s.Addr)
	require.Equal(t, "me@example.com", s.From)
}

func TestSMTPSenderEmptyRecipient(t *testing.T) {
	s := NewSMTPSender("localhost:1025", "me@example.com")
	require.Error(t, s.Send("  ", "subj", "body"))
}

func TestStdoutSender(t *testing.T) {
	require.NoError(t, StdoutSender{}.Send("user@example.com", "Testbetreff", "<p>Hallo</p>"))
}

// fakeSMTP accepts one delivery and hands back the raw message once the
// session is over.
func fakeSMTP(t *testing.T) (addr string, message func() string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		fmt.Fprintf(conn, "220 fake ESMTP\r\n")
		inData := false
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if strings.TrimRight(line, "\r\n") == "." {
					inData = false
					fmt.Fprintf(conn, "250 OK\r\n")
					continue
				}
				buf.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimRight(line, "\r\n")); {
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				fmt.Fprintf(conn, "354 go ahead\r\n")
			case strings.HasPrefix(cmd, "QUIT"):
				fmt.Fprintf(conn, "221 bye\r\n")
				return
			default:
				fmt.Fprintf(conn, "250 OK\r\n")
			}
		}
	}()

	return ln.Addr().String(), func() string {
		<-done
		return buf.String()
	}
}

func TestSMTPSenderDelivers(t *testing.T) {
	addr, message := fakeSMTP(t)

	s := NewSMTPSender(addr, "planner@localhost")
	require.NoError(t, s.Send("thomas@example.com", "Trainingsplan-Prompt KW34", "<pre>Plan</pre>"))

	msg := message()
	require.Contains(t, msg, "From: planner@localhost")
	require.Contains(t, msg, "To: thomas@example.com")
	require.Contains(t, msg, "Subject: Trainingsplan-Prompt KW34")
	require.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	require.Contains(t, msg, "<pre>Plan</pre>")
}

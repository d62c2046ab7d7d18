package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ent0n29/remindbot/internal/protocol"
	"github.com/ent0n29/remindbot/internal/reliability"
)

const tapCommand = "/tap"

func chatCmd() *cobra.Command {
	var (
		baseURL string
		userID  string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to a running bot from the terminal",
		Long: `Open a WebSocket chat with a running bot. Each line is sent as a
message; "/tap <data>" taps the inline button carrying that data.

Examples:
  remindbot chat --user alice
  remindbot chat --url https://bot.example.com --user alice`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoint, err := chatURL(baseURL, userID)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := newChatClient(endpoint, userID, cmd.OutOrStdout())
			return c.run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "bot service base URL")
	cmd.Flags().StringVar(&userID, "user", "", "user id to chat as")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func chatURL(baseURL, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/chat/ws"
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type chatClient struct {
	endpoint string
	userID   string
	backoff  reliability.Backoff

	mu   sync.Mutex
	out  io.Writer
	taps map[string]string // button data -> message id
}

func newChatClient(endpoint, userID string, out io.Writer) *chatClient {
	return &chatClient{
		endpoint: endpoint,
		userID:   userID,
		backoff:  reliability.Backoff{Base: 500 * time.Millisecond, Cap: 15 * time.Second},
		out:      out,
		taps:     make(map[string]string),
	}
}

// run relays lines from in until in is exhausted or ctx ends, reconnecting
// with capped exponential backoff when the connection drops.
func (c *chatClient) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !reliability.IsRetryableDial(resp) {
				return fmt.Errorf("connect %s: %w", c.endpoint, err)
			}
			wait := c.backoff.Next()
			c.printf("connection failed (%v), retrying in %s\n", err, wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		c.backoff.Reset()
		c.printf("connected as %s\n", c.userID)

		finished := c.session(ctx, conn, lines)
		_ = conn.Close()
		if finished {
			return nil
		}
	}
}

// session pumps one connection. It reports true when the chat is over and
// false when the connection dropped and should be re-established.
func (c *chatClient) session(ctx context.Context, conn *websocket.Conn, lines <-chan string) bool {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			c.handleFrame(data)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return true
		case err := <-readErr:
			c.printf("disconnected: %v\n", err)
			return false
		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return true
			}
			msg, ok := c.parseLine(line)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				c.printf("send failed: %v\n", err)
				return false
			}
		}
	}
}

func (c *chatClient) parseLine(line string) (any, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(line, tapCommand); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		data := strings.TrimSpace(rest)
		if data == "" {
			return nil, false
		}
		c.mu.Lock()
		messageID := c.taps[data]
		c.mu.Unlock()
		return protocol.UserCallback{
			Type:      protocol.TypeUserCallback,
			UserID:    c.userID,
			MessageID: messageID,
			Data:      data,
		}, true
	}
	return protocol.UserText{Type: protocol.TypeUserText, UserID: c.userID, Text: line}, true
}

func (c *chatClient) handleFrame(data []byte) {
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		c.printf("unreadable frame: %v\n", err)
		return
	}
	switch m := msg.(type) {
	case protocol.BotMessage:
		c.remember(m.MessageID, m.InlineKeyboard)
	case protocol.BotEditMarkup:
		c.remember(m.MessageID, m.InlineKeyboard)
	}
	c.printf("%s\n", render(msg))
}

// remember maps every inline button to the message it belongs to so that
// "/tap <data>" can address it.
func (c *chatClient) remember(messageID string, kb *protocol.InlineKeyboard) {
	if kb == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range kb.Rows {
		for _, b := range row {
			if b.Data != "" {
				c.taps[b.Data] = messageID
			}
		}
	}
}

func (c *chatClient) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func render(msg any) string {
	var sb strings.Builder
	switch m := msg.(type) {
	case protocol.BotMessage:
		sb.WriteString("bot> ")
		sb.WriteString(m.Text)
		if kb := m.InlineKeyboard; kb != nil {
			writeRows(&sb, kb.Rows, true)
		}
		if kb := m.ReplyKeyboard; kb != nil && !kb.Remove {
			writeRows(&sb, kb.Rows, false)
		}
	case protocol.BotEditMarkup:
		if m.InlineKeyboard == nil {
			fmt.Fprintf(&sb, "bot> (buttons removed from %s)", m.MessageID)
		} else {
			fmt.Fprintf(&sb, "bot> (buttons updated on %s)", m.MessageID)
			writeRows(&sb, m.InlineKeyboard.Rows, true)
		}
	case protocol.ErrorEvent:
		fmt.Fprintf(&sb, "error> %s: %s", m.Code, m.Detail)
	default:
		fmt.Fprintf(&sb, "?> %v", msg)
	}
	return sb.String()
}

func writeRows(sb *strings.Builder, rows [][]protocol.Button, inline bool) {
	for _, row := range rows {
		sb.WriteString("\n   ")
		for _, b := range row {
			if inline {
				fmt.Fprintf(sb, " [%s|%s]", b.Text, b.Data)
			} else {
				fmt.Fprintf(sb, " <%s>", b.Text)
			}
		}
	}
}

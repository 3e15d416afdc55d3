package server

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// ErrConnectionClosed is returned when sending on a closed connection
var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one websocket client and its game session
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	session   *session.Session
	limits    BetLimits
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// BetLimits bound what a single round may stake
type BetLimits struct {
	Min float64
	Max float64
}

// NewConnection creates a connection wrapper around an upgraded
// websocket and a fresh session.
func NewConnection(conn *websocket.Conn, sess *session.Session, limits BetLimits, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 64),
		session: sess,
		limits:  limits,
		logger:  logger.WithPrefix("conn").With("session", sess.ID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeSignIn:
		c.handleSignIn()
	case MessageTypeFetchBalance:
		c.handleFetchBalance()
	case MessageTypeStartRound:
		c.handleStartRound(msg)
	case MessageTypeAdvance:
		c.handleAdvance()
	default:
		c.sendError("unknown message type: " + string(msg.Type))
	}
}

func (c *Connection) handleSignIn() {
	identity, err := c.session.SignIn(c.ctx)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}

	account, _ := c.session.Account()
	c.reply(MessageTypeSignedIn, SignedInData{Identity: identity, Token: account.Token})

	// Best effort initial balance; a failure is reported but does not
	// undo the sign-in.
	c.handleFetchBalance()
}

func (c *Connection) handleFetchBalance() {
	_, err := c.session.RefreshBalance(c.ctx)
	if err != nil {
		c.sendError(userMessage(err))
	}
	account, ok := c.session.Account()
	if !ok {
		return
	}
	c.reply(MessageTypeBalance, BalanceData{
		Identity: account.Identity,
		Balance:  account.Balance,
		Token:    account.Token,
		Stale:    account.Stale,
	})
}

func (c *Connection) handleStartRound(msg *Message) {
	var data StartRoundData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError("malformed start_round payload")
		return
	}
	if data.Bet < c.limits.Min || data.Bet > c.limits.Max {
		c.sendError(betLimitMessage(c.limits))
		return
	}

	snap, err := c.session.StartRound(data.Bet)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}
	c.reply(MessageTypeSnapshot, SnapshotDataFromGame(snap))
}

func (c *Connection) handleAdvance() {
	result, err := c.session.Advance(c.ctx)
	if err != nil {
		c.sendError(userMessage(err))
		return
	}
	c.reply(MessageTypeSnapshot, SnapshotDataFromResult(result))

	// A resolved round changed the balance; push the fresh figure.
	if result.Snapshot.Stage == game.Showdown {
		if account, ok := c.session.Account(); ok {
			c.reply(MessageTypeBalance, BalanceData{
				Identity: account.Identity,
				Balance:  account.Balance,
				Token:    account.Token,
				Stale:    account.Stale,
			})
		}
	}
}

// OnEvent pushes a round event to the client. Connection subscribes to
// the session's event bus, so every started round, stage transition,
// and resolution reaches the browser without polling.
func (c *Connection) OnEvent(event game.Event) {
	c.reply(MessageTypeEvent, EventDataFromGame(event))
}

func (c *Connection) reply(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("failed to encode message", "type", messageType, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(message string) {
	c.reply(MessageTypeError, ErrorData{Message: message})
}

// userMessage maps errors to the text shown to the player
func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "Insufficient balance for that bet!"
	case errors.Is(err, game.ErrInvalidBet):
		return "Bet must be a positive amount."
	case errors.Is(err, game.ErrTerminalStage):
		return "The round is over. Start a new one."
	case errors.Is(err, session.ErrRoundBusy):
		return "Still waiting on the wallet, hang tight."
	case errors.Is(err, session.ErrRoundInProgress):
		return "Finish the current round before signing in again."
	case errors.Is(err, session.ErrNotSignedIn):
		return "Connect your wallet first!"
	case errors.Is(err, session.ErrNoRound):
		return "No round in progress."
	case errors.Is(err, session.ErrGatewayTimeout):
		return "The wallet took too long to respond. Please try again."
	default:
		return err.Error()
	}
}

func betLimitMessage(limits BetLimits) string {
	return "Bet must be between " + formatAmount(limits.Min) + " and " + formatAmount(limits.Max) + "."
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// channelInfo caches what we learned about a channel from updates and
// full-channel requests.
type channelInfo struct {
	accessHash int64
	megagroup  bool
	canSend    bool
}

// Client implements domain.TelegramClient using the gotd/td library.
type Client struct {
	client *telegram.Client

	apiID   int
	apiHash string

	userID int64
	phone  string

	sessionStorage *FileSessionStorage

	connected     bool
	disconnecting bool
	mu            sync.RWMutex
	cancelFunc    context.CancelFunc
	runDone       chan struct{} // signals when client.Run() completes

	logger zerolog.Logger

	api *tg.Client

	rateLimiter *rate.Limiter

	dispatcher tg.UpdateDispatcher

	handlerMu sync.RWMutex
	handler   domain.PostHandler

	infoMu   sync.Mutex
	channels map[int64]channelInfo
	linked   map[int64]int64 // broadcast channel ID -> linked chat ID (0 = none)
}

// ClientConfig holds configuration for Client
type ClientConfig struct {
	APIID      int
	APIHash    string
	UserID     int64
	Phone      string
	SessionDir string
	Logger     zerolog.Logger
}

// maskPhoneNumber masks phone number for logging (keeps first 2 and last 2 digits)
func maskPhoneNumber(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}

// NewClient creates a new MTProto client bound to one stored session.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.Phone == "" {
		return nil, fmt.Errorf("Phone is required")
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = "./sessions"
	}

	sessionStorage, err := NewFileSessionStorage(cfg.SessionDir, cfg.UserID, cfg.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	maskedPhone := maskPhoneNumber(cfg.Phone)

	c := &Client{
		apiID:          cfg.APIID,
		apiHash:        cfg.APIHash,
		userID:         cfg.UserID,
		phone:          cfg.Phone,
		sessionStorage: sessionStorage,
		logger:         cfg.Logger.With().Str("component", "mtproto_client").Str("phone", maskedPhone).Logger(),
		rateLimiter:    rate.NewLimiter(rate.Every(time.Second), 10),
		dispatcher:     tg.NewUpdateDispatcher(),
		channels:       make(map[int64]channelInfo),
		linked:         make(map[int64]int64),
	}

	c.dispatcher.OnNewChannelMessage(c.onChannelMessage)

	return c, nil
}

// Subscribe registers the inbound post handler. Must be called before Connect.
func (c *Client) Subscribe(handler domain.PostHandler) {
	c.handlerMu.Lock()
	c.handler = handler
	c.handlerMu.Unlock()
}

// Connect connects to Telegram and restores the stored session. There is no
// interactive authentication: sessions are provisioned out of band, so an
// unauthorized session is a credential error.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already connected")
		return nil
	}
	if c.disconnecting {
		c.mu.Unlock()
		return fmt.Errorf("disconnect in progress, cannot connect")
	}
	defer c.mu.Unlock()

	// Sessions are provisioned out of band, so a missing file cannot
	// become authorized by dialing.
	if !c.sessionStorage.Exists() {
		return apperrCredentialNoSession(c.sessionStorage.Path())
	}

	c.logger.Info().Msg("connecting to Telegram")

	c.client = telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: c.sessionStorage,
		UpdateHandler:  c.dispatcher,
	})

	clientCtx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	readyChan := make(chan struct{})
	errChan := make(chan error, 1)
	c.runDone = make(chan struct{})
	runDone := c.runDone

	go func() {
		defer close(runDone)
		err := c.client.Run(clientCtx, func(ctx context.Context) error {
			c.api = c.client.API()

			status, err := c.client.Auth().Status(ctx)
			if err != nil {
				return classify("check auth status", err)
			}

			if !status.Authorized {
				return apperrCredentialNotAuthorized()
			}

			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info().Msg("session restored, connected to Telegram")

			close(readyChan)

			<-ctx.Done()
			return ctx.Err()
		})
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-readyChan:
		return nil
	case err := <-errChan:
		cancel()
		if err != nil {
			return classify("connect", err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Disconnect disconnects from Telegram. The session is saved by the
// underlying client before shutdown; repeated calls are safe.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()

	if c.disconnecting {
		c.mu.Unlock()
		c.logger.Debug().Msg("disconnect already in progress")
		return nil
	}

	if !c.connected {
		c.mu.Unlock()
		c.logger.Debug().Msg("already disconnected")
		return nil
	}

	c.logger.Info().Msg("disconnecting from Telegram")

	c.disconnecting = true
	cancelFunc := c.cancelFunc
	runDone := c.runDone
	c.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()

		if runDone != nil {
			select {
			case <-runDone:
				c.logger.Debug().Msg("client stopped gracefully")
			case <-ctx.Done():
				c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
			}
		}
	}

	c.mu.Lock()
	c.client = nil
	c.api = nil
	c.connected = false
	c.cancelFunc = nil
	c.runDone = nil
	c.disconnecting = false
	c.mu.Unlock()

	c.logger.Info().Msg("disconnected from Telegram")
	return nil
}

// IsConnected checks if client is connected to Telegram
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// AccountID returns the phone number backing this client.
func (c *Client) AccountID() string {
	return c.phone
}

func (c *Client) apiClient() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

func validateChannel(channel string) error {
	trimmed := strings.TrimPrefix(channel, "@")
	if trimmed == "" {
		return domain.ErrInvalidChannel
	}
	return nil
}

// resolveChannel resolves a @username to an InputChannel with access hash.
func (c *Client) resolveChannel(ctx context.Context, api *tg.Client, channel string) (*tg.InputChannel, error) {
	username := strings.TrimPrefix(channel, "@")
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		return nil, classify("resolve channel", err)
	}

	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			c.rememberChannel(ch)
			return &tg.InputChannel{
				ChannelID:  ch.ID,
				AccessHash: ch.AccessHash,
			}, nil
		}
	}

	return nil, fmt.Errorf("resolved peer is not a channel: %s", channel)
}

// JoinChannel joins a channel by @username.
func (c *Client) JoinChannel(ctx context.Context, channel string) error {
	if err := validateChannel(channel); err != nil {
		return err
	}

	api, err := c.apiClient()
	if err != nil {
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	c.logger.Info().Str("channel", channel).Msg("joining channel")

	inputChannel, err := c.resolveChannel(ctx, api, channel)
	if err != nil {
		return err
	}

	if _, err := api.ChannelsJoinChannel(ctx, inputChannel); err != nil {
		return classify("join channel", err)
	}

	c.logger.Info().Str("channel", channel).Msg("joined channel")
	return nil
}

// LeaveChannel leaves a channel by @username.
func (c *Client) LeaveChannel(ctx context.Context, channel string) error {
	if err := validateChannel(channel); err != nil {
		return err
	}

	api, err := c.apiClient()
	if err != nil {
		return err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	c.logger.Info().Str("channel", channel).Msg("leaving channel")

	inputChannel, err := c.resolveChannel(ctx, api, channel)
	if err != nil {
		return err
	}

	if _, err := api.ChannelsLeaveChannel(ctx, inputChannel); err != nil {
		return classify("leave channel", err)
	}

	c.logger.Info().Str("channel", channel).Msg("left channel")
	return nil
}

// JoinLinkedChat joins a discussion chat by ID using the access hash cached
// from a previous update or full-channel lookup.
func (c *Client) JoinLinkedChat(ctx context.Context, chatID int64) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}

	c.infoMu.Lock()
	info, ok := c.channels[chatID]
	c.infoMu.Unlock()
	if !ok {
		return fmt.Errorf("no access hash cached for chat %d", chatID)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	_, err = api.ChannelsJoinChannel(ctx, &tg.InputChannel{
		ChannelID:  chatID,
		AccessHash: info.accessHash,
	})
	if err != nil {
		return classify("join linked chat", err)
	}

	c.logger.Info().Int64("chat_id", chatID).Msg("joined linked discussion chat")
	return nil
}

// SendReply posts text as a reply to the given message.
func (c *Client) SendReply(ctx context.Context, chatID int64, inReplyTo int, text string) (*domain.SentMessage, error) {
	api, err := c.apiClient()
	if err != nil {
		return nil, err
	}

	c.infoMu.Lock()
	info, ok := c.channels[chatID]
	c.infoMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no access hash cached for chat %d", chatID)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	updates, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  chatID,
			AccessHash: info.accessHash,
		},
		ReplyTo: &tg.InputReplyToMessage{
			ReplyToMsgID: inReplyTo,
		},
		Message:  text,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return nil, classify("send reply", err)
	}

	return &domain.SentMessage{
		ID:     sentMessageID(updates),
		ChatID: chatID,
	}, nil
}

// sentMessageID extracts the posted message ID from the updates response.
func sentMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		for _, upd := range u.Updates {
			switch m := upd.(type) {
			case *tg.UpdateMessageID:
				return m.ID
			case *tg.UpdateNewChannelMessage:
				if msg, ok := m.Message.(*tg.Message); ok {
					return msg.ID
				}
			}
		}
	}
	return 0
}

// rememberChannel caches per-channel metadata needed for later requests.
func (c *Client) rememberChannel(ch *tg.Channel) {
	c.infoMu.Lock()
	c.channels[ch.ID] = channelInfo{
		accessHash: ch.AccessHash,
		megagroup:  ch.Megagroup,
		canSend:    ch.Megagroup && !ch.DefaultBannedRights.SendMessages,
	}
	c.infoMu.Unlock()
}

// linkedChatID resolves (with caching) the discussion chat linked to a
// broadcast channel. Returns 0 when the channel has none.
func (c *Client) linkedChatID(ctx context.Context, api *tg.Client, channelID int64) int64 {
	c.infoMu.Lock()
	if linked, ok := c.linked[channelID]; ok {
		c.infoMu.Unlock()
		return linked
	}
	info, ok := c.channels[channelID]
	c.infoMu.Unlock()
	if !ok {
		return 0
	}

	full, err := api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
		ChannelID:  channelID,
		AccessHash: info.accessHash,
	})
	if err != nil {
		c.logger.Debug().Err(err).Int64("channel_id", channelID).Msg("failed to fetch full channel")
		return 0
	}

	var linked int64
	if channelFull, ok := full.FullChat.(*tg.ChannelFull); ok {
		linked = channelFull.LinkedChatID
	}

	// Cache access hashes of the chats that came along, the linked chat
	// among them, so a follow-up join does not need another resolve.
	for _, chat := range full.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			c.rememberChannel(ch)
		}
	}

	c.infoMu.Lock()
	c.linked[channelID] = linked
	c.infoMu.Unlock()

	return linked
}

// onChannelMessage converts a raw channel update into a domain post and
// hands it to the subscribed handler.
func (c *Client) onChannelMessage(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
	msg, ok := u.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}

	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	for _, ch := range e.Channels {
		c.rememberChannel(ch)
	}

	c.infoMu.Lock()
	info, known := c.channels[peer.ChannelID]
	c.infoMu.Unlock()
	if !known {
		c.logger.Debug().Int64("channel_id", peer.ChannelID).Msg("update for unknown channel, skipping")
		return nil
	}

	post := domain.ChannelPost{
		ChatID:     peer.ChannelID,
		MessageID:  msg.ID,
		Text:       msg.Message,
		Discussion: info.megagroup,
		CanSend:    info.canSend,
	}

	if !info.megagroup {
		c.mu.RLock()
		api := c.api
		c.mu.RUnlock()
		if api != nil {
			post.LinkedChatID = c.linkedChatID(ctx, api, peer.ChannelID)
		}
	}

	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(ctx, post)
	}

	return nil
}

package dify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
)

const maxLineBytes = 1 << 20

// Client is a chat.Agent backed by the Dify chat-messages streaming API.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewClient targets baseURL such as "https://api.dify.ai/v1".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// tanpa timeout total; stream bisa lama, batasnya dari ctx
		http: resty.New().
			SetHeader("Accept", "text/event-stream").
			SetTimeout(0).
			SetTransport(&http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			}),
	}
}

type chatRequest struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	User           string         `json:"user"`
	ConversationID string         `json:"conversation_id"`
}

func (c *Client) Open(ctx context.Context, req chat.Request) (chat.Stream, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Inputs:         map[string]any{},
			Query:          req.Query,
			ResponseMode:   "streaming",
			User:           req.User,
			ConversationID: req.ConversationID,
		}).
		SetDoNotParseResponse(true).
		Post(c.baseURL + "/chat-messages")
	if err != nil {
		return nil, fmt.Errorf("dify request: %w", err)
	}
	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("request failed: %d", resp.StatusCode())
	}

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &stream{body: body, sc: sc}, nil
}

type streamEvent struct {
	Event          string `json:"event"`
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type stream struct {
	body io.ReadCloser
	sc   *bufio.Scanner
}

// Recv returns the next data event. Lines that are not valid JSON are skipped.
func (s *stream) Recv() (chat.Event, error) {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(line[len("data:"):])), &ev); err != nil {
			continue
		}
		switch ev.Event {
		case "message_end":
			return chat.Event{ConversationID: ev.ConversationID, End: true}, nil
		case "error":
			return chat.Event{}, errors.New("dify stream error: " + ev.Message)
		}
		return chat.Event{Answer: ev.Answer, ConversationID: ev.ConversationID}, nil
	}
	if err := s.sc.Err(); err != nil {
		return chat.Event{}, err
	}
	return chat.Event{}, io.EOF
}

func (s *stream) Close() error {
	return s.body.Close()
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/totegamma/sigchat/core"
)

const (
	defaultTimeout = 10 * time.Second
	eventBuffer    = 16
)

var tracer = otel.Tracer("client")

// Client talks to a sigchat server
type Client interface {
	SendMessage(ctx context.Context, text, signature, userID string) error
	ReleasePublicKey(ctx context.Context, key, userID string) error
	Register(ctx context.Context, username, password string) (core.RegisterResponse, error)
	Login(ctx context.Context, username, password string) error
	Subscribe(ctx context.Context) (<-chan core.Event, error)
}

// APIError is a non successful response from the server
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the server at endpoint, e.g. http://localhost:3000
func NewClient(endpoint string) Client {
	return &client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		var e core.ErrorResponse
		json.Unmarshal(respBody, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, APIError{Status: resp.StatusCode, Message: e.Error, Field: e.Field}
	}

	return respBody, nil
}

func (c *client) SendMessage(ctx context.Context, text, signature, userID string) error {
	ctx, span := tracer.Start(ctx, "Client.SendMessage")
	defer span.End()

	_, err := c.post(ctx, "/api/send-message", map[string]string{
		"text":      text,
		"signature": signature,
		"userID":    userID,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (c *client) ReleasePublicKey(ctx context.Context, key, userID string) error {
	ctx, span := tracer.Start(ctx, "Client.ReleasePublicKey")
	defer span.End()

	_, err := c.post(ctx, "/api/release-public-key", map[string]string{
		"key":    key,
		"userID": userID,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (c *client) Register(ctx context.Context, username, password string) (core.RegisterResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.Register")
	defer span.End()

	body, err := c.post(ctx, "/api/register", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		span.RecordError(err)
		return core.RegisterResponse{}, err
	}

	var registered core.RegisterResponse
	err = json.Unmarshal(body, &registered)
	if err != nil {
		span.RecordError(err)
		return core.RegisterResponse{}, errors.Wrap(err, "invalid register response")
	}

	return registered, nil
}

func (c *client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Client.Login")
	defer span.End()

	_, err := c.post(ctx, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Subscribe connects to the realtime socket. The channel is closed when ctx is done or the connection drops.
func (c *client) Subscribe(ctx context.Context) (<-chan core.Event, error) {
	ctx, span := tracer.Start(ctx, "Client.Subscribe")
	defer span.End()

	url := "ws" + strings.TrimPrefix(c.endpoint, "http") + "/socket"

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to connect socket")
	}

	events := make(chan core.Event, eventBuffer)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event core.Event
			err := conn.ReadJSON(&event)
			if err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

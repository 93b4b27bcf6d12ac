package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appErrors "robot-dispatch/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

//go:generate mockgen -source=client.go -destination=mocks/mock_transport.go -package=mocks

// Transport sends out-of-band commands to a robot.
type Transport interface {
	SendDeliveryCommand(ctx context.Context, target Endpoint, cmd DeliveryCommand) (*Reply, error)
	Ping(ctx context.Context, target Endpoint) (*Reply, error)
	GetStatus(ctx context.Context, target Endpoint) (*Reply, error)
	EmergencyStop(ctx context.Context, target Endpoint) (*Reply, error)
}

// Client talks JSON over HTTP to the robot's command server. Every failure
// comes back as a DEVICE_ERROR.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) SendDeliveryCommand(ctx context.Context, target Endpoint, cmd DeliveryCommand) (*Reply, error) {
	if cmd.Action == "" {
		cmd.Action = ActionDeliver
	}
	return c.do(ctx, http.MethodPost, target, "/api/delivery", cmd)
}

func (c *Client) Ping(ctx context.Context, target Endpoint) (*Reply, error) {
	return c.do(ctx, http.MethodGet, target, "/api/ping", nil)
}

func (c *Client) GetStatus(ctx context.Context, target Endpoint) (*Reply, error) {
	return c.do(ctx, http.MethodGet, target, "/api/status", nil)
}

func (c *Client) EmergencyStop(ctx context.Context, target Endpoint) (*Reply, error) {
	return c.do(ctx, http.MethodPost, target, "/api/emergency-stop", nil)
}

func (c *Client) do(ctx context.Context, method string, target Endpoint, path string, body any) (*Reply, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Device("device marshal", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.BaseURL()+path, bodyReader)
	if err != nil {
		return nil, appErrors.Device(fmt.Sprintf("device %s %s", method, path), err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.Device(fmt.Sprintf("device %s %s", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Device("device read body", err)
	}
	if resp.StatusCode >= 400 {
		return nil, appErrors.Device(fmt.Sprintf("device HTTP %d: %s", resp.StatusCode, string(data)), nil)
	}

	var reply Reply
	if len(data) > 0 {
		if err := json.Unmarshal(data, &reply); err != nil {
			return nil, appErrors.Device("device decode", err)
		}
	}
	if !reply.Success {
		msg := reply.Message
		if msg == "" {
			msg = "command rejected"
		}
		return &reply, appErrors.Device(fmt.Sprintf("device %s %s: %s", method, path, msg), nil)
	}

	return &reply, nil
}

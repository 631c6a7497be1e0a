package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tuongmengleang/firechat/internal/domain"
)

// DefaultTimeout bounds every relay request made by the HTTP client.
const DefaultTimeout = 15 * time.Second

// errNotFound marks a 404 from the relay.
var errNotFound = errors.New("not found")

// HTTP talks to a relay server over JSON/HTTP.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base.
func NewHTTP(base string) *HTTP {
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: DefaultTimeout},
	}
}

// PutPublicKeyRecord publishes rec under its user id.
func (c *HTTP) PutPublicKeyRecord(ctx context.Context, rec domain.PublicKeyRecord) error {
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(rec.UserID.String()), rec, nil)
}

// GetPublicKeyRecord fetches the record of userID. A 404 is reported as
// found == false.
func (c *HTTP) GetPublicKeyRecord(ctx context.Context, userID domain.UserID) (domain.PublicKeyRecord, bool, error) {
	var out domain.PublicKeyRecord
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID.String()), nil, &out)
	if errors.Is(err, errNotFound) {
		return domain.PublicKeyRecord{}, false, nil
	}
	if err != nil {
		return domain.PublicKeyRecord{}, false, err
	}
	return out, true, nil
}

// PostMessage queues msg for its recipient.
func (c *HTTP) PostMessage(ctx context.Context, msg domain.EncryptedMessage) error {
	return c.do(ctx, http.MethodPost, "/msg/"+url.PathEscape(msg.RecipientID.String()), msg, nil)
}

// FetchMessages lists up to limit queued messages for userID, oldest first.
func (c *HTTP) FetchMessages(ctx context.Context, userID domain.UserID, limit int) ([]domain.EncryptedMessage, error) {
	path := "/msg/" + url.PathEscape(userID.String())
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var msgs []domain.EncryptedMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AckMessages drops the first count queued messages of userID.
func (c *HTTP) AckMessages(ctx context.Context, userID domain.UserID, count int) error {
	return c.do(ctx, http.MethodPost, "/msg/"+url.PathEscape(userID.String())+"/ack", ackRequest{Count: count}, nil)
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("relay %s %s: %w", method, path, errNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.RelayClient = (*HTTP)(nil)

package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/klokku/notebook/pkg/note"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type requestDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client hands note pages over to the external transcriber.
type Client struct {
	http     requestDoer
	endpoint string
}

func NewClient(httpClient requestDoer, endpoint string) *Client {
	return &Client{http: httpClient, endpoint: endpoint}
}

// Send posts the page to the transcriber. Most transcribers only acknowledge the request and
// post the result back later, in which case Send returns nil. A reply that already carries a
// tagline or raw text is returned as the transcription.
func (c *Client) Send(ctx context.Context, page note.NotePageDTO) (*note.Transcription, error) {
	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid transcription endpoint: %w", err)
	}
	query := target.Query()
	query.Set("id", "transcribeImage")
	target.RawQuery = query.Encode()

	body, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("failed to encode note page: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer response.Body.Close()

	reply, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		truncated, _ := limitStringLength(string(reply), 256)
		return nil, fmt.Errorf("unexpected status code %d from %s, response: %s", response.StatusCode, target.Host, truncated)
	}

	return parseReply(reply), nil
}

func parseReply(reply []byte) *note.Transcription {
	if !gjson.ValidBytes(reply) {
		log.Debugf("transcriber acknowledged with a non JSON reply")
		return nil
	}
	result := gjson.ParseBytes(reply)
	tagline := result.Get("tagline").String()
	rawText := result.Get("rawText").String()
	if tagline == "" && rawText == "" {
		return nil
	}
	return &note.Transcription{
		RawText:   rawText,
		Tagline:   tagline,
		DotPoints: stringsOf(result.Get("dotPoints")),
		Images:    stringsOf(result.Get("images")),
	}
}

func stringsOf(result gjson.Result) []string {
	if !result.IsArray() {
		return nil
	}
	values := make([]string, 0)
	result.ForEach(func(_, value gjson.Result) bool {
		values = append(values, value.String())
		return true
	})
	return values
}

func limitStringLength(s string, max int) (string, bool) {
	asRunes := []rune(s)
	if len(asRunes) > max {
		return string(asRunes[:max]), true
	}
	return s, false
}

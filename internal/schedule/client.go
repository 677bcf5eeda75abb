// Package schedule fetches lessons from the university schedule API.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/guilherme-santos/lessonsync/internal"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the schedule API at baseURL. A nil
// httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// Lessons returns every lesson scheduled within period. Groups are flattened
// in the order the API lists them.
func (c *Client) Lessons(ctx context.Context, period internal.Period) ([]internal.Lesson, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &internal.IOError{Op: "schedule: parsing url", Err: err}
	}
	q := u.Query()
	q.Set("dateStart", period.Start.String())
	q.Set("dateEnd", period.End.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &internal.IOError{Op: "schedule: building request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	internal.Logger(ctx).Debug("Fetching schedule", "url", u.Redacted())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &internal.IOError{Op: "schedule: fetching lessons", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &internal.IOError{
			Op:        "schedule: fetching lessons",
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:       fmt.Errorf("unexpected status %s: %s", resp.Status, body),
		}
	}

	lessons, err := decodeLessons(resp.Body)
	if err != nil {
		return nil, &internal.IOError{Op: "schedule: decoding lessons", Err: err}
	}
	return lessons, nil
}

// decodeLessons reads {"schedule": {"<group>": [...], ...}} and flattens the
// groups. A map would lose the group order, so the object is walked token by
// token. The schedule may also be an array of groups, e.g. [] when there is
// nothing to list.
func decodeLessons(r io.Reader) ([]internal.Lesson, error) {
	dec := json.NewDecoder(r)
	lessons := []internal.Lesson{}

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "schedule" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			continue
		}
		switch tok {
		case json.Delim('{'):
			for dec.More() {
				group, err := objectKey(dec)
				if err != nil {
					return nil, err
				}
				var batch []internal.Lesson
				if err := dec.Decode(&batch); err != nil {
					return nil, fmt.Errorf("group %q: %w", group, err)
				}
				lessons = append(lessons, batch...)
			}
			if err := expectDelim(dec, '}'); err != nil {
				return nil, err
			}
		case json.Delim('['):
			// An empty schedule may come as []; a non-empty array holds the
			// groups without their names.
			for i := 0; dec.More(); i++ {
				var batch []internal.Lesson
				if err := dec.Decode(&batch); err != nil {
					return nil, fmt.Errorf("group %d: %w", i, err)
				}
				lessons = append(lessons, batch...)
			}
			if err := expectDelim(dec, ']'); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("schedule: expected object or array, got %v", tok)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return lessons, nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

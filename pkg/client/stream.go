package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmsdash/pkg/events"
)

// Download fetches an export and copies it to w. It returns the file name
// suggested by the dashboard.
func (c *Client) Download(path string, w io.Writer) (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return "", wrapDialError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s", ErrNotFound, unquote(strings.TrimSpace(string(b))))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("got %d: %s", resp.StatusCode, unquote(strings.TrimSpace(string(b))))
	}

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to download %s", path)
	}
	return name, nil
}

// ExportCells downloads the cell CSV.
func (c *Client) ExportCells(w io.Writer) (string, error) {
	return c.Download("/export/cells.csv", w)
}

// ExportTasks downloads the task CSV.
func (c *Client) ExportTasks(w io.Writer) (string, error) {
	return c.Download("/export/tasks.csv", w)
}

// Watch follows the event stream and calls fn for every event until ctx is
// done or the server closes the stream.
func (c *Client) Watch(ctx context.Context, fn func(events.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return wrapDialError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("got %d from event stream", resp.StatusCode)
	}

	err = readEvents(resp.Body, fn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readEvents parses a text/event-stream body. Only the event and data
// fields are used.
func readEvents(r io.Reader, fn func(events.Event)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if name != "" || len(data) > 0 {
				fn(events.Event{Name: name, Data: []byte(strings.Join(data, "\n"))})
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return pkgerrors.Wrapf(err, "failed to read event stream")
	}
	return nil
}

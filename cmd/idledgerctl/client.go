package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// do sends one request and pretty-prints the JSON response. Non-2xx
// responses are written to errOut and yield exit code 1.
func (c *client) do(method, path string, body any, out, errOut io.Writer) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			fmt.Fprintf(errOut, "encode request: %v\n", err)
			return 1
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		fmt.Fprintf(errOut, "build request: %v\n", err)
		return 1
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "idledgerctl")

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(errOut, "%s %s: %v\n", method, path, err)
		return 1
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(errOut, "read response: %v\n", err)
		return 1
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		raw = pretty.Bytes()
	}
	if resp.StatusCode >= 300 {
		fmt.Fprintf(errOut, "%s %s: %s\n%s\n", method, path, resp.Status, raw)
		return 1
	}
	_, _ = fmt.Fprintf(out, "%s\n", raw)
	return 0
}

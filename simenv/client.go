// Package simenv connects anydqn to a flight simulator
// bridge and prepares its camera frames for a Q-network.
package simenv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// Client is an anydqn.Env backed by a simulator bridge
// which speaks JSON over HTTP.
//
// The bridge exposes two endpoints:
//
//	POST /reset                -> {"observation": ...}
//	POST /step {"action": n}   -> {"observation": ..., "reward": r, "done": b}
//
// Observations may be flat or nested lists of numbers;
// nested rows are concatenated in order.
type Client struct {
	BaseURL    string
	Creator    anyvec.Creator
	NumActions int

	// HTTP is used for requests.
	// If nil, a client with a one minute timeout is used.
	HTTP *http.Client
}

type stepRequest struct {
	Action int `json:"action"`
}

type stepResponse struct {
	Observation interface{} `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
}

// Reset starts a new episode.
func (c *Client) Reset() (obs anyvec.Vector, err error) {
	defer essentials.AddCtxTo("reset simulator", &err)
	var resp stepResponse
	if err := c.post("/reset", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return c.observation(resp.Observation)
}

// Step applies an action.
func (c *Client) Step(action int) (obs anyvec.Vector, reward float64,
	done bool, err error) {
	if action < 0 || action >= c.NumActions {
		panic(fmt.Sprintf("action %d out of range [0, %d)", action, c.NumActions))
	}
	defer essentials.AddCtxTo("step simulator", &err)
	var resp stepResponse
	if err = c.post("/step", stepRequest{Action: action}, &resp); err != nil {
		return
	}
	obs, err = c.observation(resp.Observation)
	return obs, resp.Reward, resp.Done, err
}

func (c *Client) post(path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	resp, err := client.Post(c.BaseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode,
			bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) observation(raw interface{}) (anyvec.Vector, error) {
	var values []float64
	if err := flatten(raw, &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty observation")
	}
	return c.Creator.MakeVectorData(c.Creator.MakeNumericList(values)), nil
}

func flatten(raw interface{}, dst *[]float64) error {
	switch raw := raw.(type) {
	case float64:
		*dst = append(*dst, raw)
	case []interface{}:
		for _, x := range raw {
			if err := flatten(x, dst); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected observation type: %T", raw)
	}
	return nil
}

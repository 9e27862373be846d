package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

// Remote talks to the opportunity-radar backend. Every call is a single
// request; nothing is retried here — the adapter downgrades to local mode on
// failure instead.
type Remote struct {
	base string
	http *http.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Remote) ListOpportunities(ctx context.Context, clientID string) ([]models.Opportunity, error) {
	var opps []models.Opportunity
	err := r.getJSON(ctx, "/opportunities?clientId="+url.QueryEscape(clientID), &opps)
	return opps, err
}

func (r *Remote) ListWatchlist(ctx context.Context, clientID string) ([]string, error) {
	var ids []string
	err := r.getJSON(ctx, "/watchlist?clientId="+url.QueryEscape(clientID), &ids)
	return ids, err
}

func (r *Remote) UpsertOpportunity(ctx context.Context, clientID string, o models.Opportunity) error {
	payload := struct {
		models.Opportunity
		ClientID string `json:"clientId"`
	}{Opportunity: o, ClientID: clientID}
	return r.postJSON(ctx, "/opportunities", payload)
}

func (r *Remote) DeleteOpportunity(ctx context.Context, clientID, id string) error {
	path := fmt.Sprintf("/opportunities?id=%s&clientId=%s", url.QueryEscape(id), url.QueryEscape(clientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.base+path, nil)
	if err != nil {
		return err
	}
	return r.do(req)
}

func (r *Remote) SetWatch(ctx context.Context, clientID, opportunityID string, active bool) error {
	payload := map[string]interface{}{
		"clientId":      clientID,
		"opportunityId": opportunityID,
		"active":        active,
	}
	return r.postJSON(ctx, "/watchlist", payload)
}

func (r *Remote) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Remote) postJSON(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Remote) do(req *http.Request) error {
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote returned %s", resp.Status)
	}
	return nil
}

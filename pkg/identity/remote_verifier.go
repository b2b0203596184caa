package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RemoteVerifier validates tokens against a GoTrue-style identity endpoint
// (GET {base}/auth/v1/user). The anon key authenticates this backend to the
// provider; the user's own token rides in the Authorization header.
type RemoteVerifier struct {
	BaseURL string
	AnonKey string
	Client  *http.Client
}

var _ Verifier = &RemoteVerifier{}

func NewRemoteVerifier(baseURL, anonKey string) *RemoteVerifier {
	return &RemoteVerifier{
		BaseURL: baseURL,
		AnonKey: anonKey,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type userResponse struct {
	Id string `json:"id"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	url := v.BaseURL + "/auth/v1/user"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.AnonKey)

	resp, err := v.Client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("identity provider rejected token: status %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.Unmarshal(bodyBytes, &user); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal response: %w", err)
	}

	userId, err := uuid.Parse(user.Id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity provider returned invalid user id: %w", err)
	}
	return userId, nil
}

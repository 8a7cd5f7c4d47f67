package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/crypto/nacl/box"
)

// GitHubService pushes Actions secrets into the platform repository so the
// CI/CD pipeline can deploy without long-lived credentials in the workflow.
type GitHubService struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type githubPublicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

type githubSecretRequest struct {
	EncryptedValue string `json:"encrypted_value"`
	KeyID          string `json:"key_id"`
}

func NewGitHubService(token string) *GitHubService {
	return &GitHubService{
		token:      token,
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{},
	}
}

// PutSecret creates or updates a repository Actions secret. GitHub requires
// the value sealed with the repository's libsodium public key.
func (g *GitHubService) PutSecret(ctx context.Context, owner, repo, name, value string) error {
	publicKey, err := g.getPublicKey(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}

	encrypted, err := sealSecret(publicKey.Key, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	body, err := json.Marshal(githubSecretRequest{
		EncryptedValue: encrypted,
		KeyID:          publicKey.KeyID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/actions/secrets/%s", g.baseURL, owner, repo, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to put secret: %w", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to put secret: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (g *GitHubService) getPublicKey(ctx context.Context, owner, repo string) (*githubPublicKey, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/secrets/public-key", g.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch public key: status %d, body: %s", resp.StatusCode, string(body))
	}

	var key githubPublicKey
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	return &key, nil
}

func (g *GitHubService) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

// sealSecret encrypts value with an anonymous NaCl sealed box, the scheme
// GitHub expects for Actions secrets.
func sealSecret(publicKeyBase64, value string) (string, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(keyBytes) != 32 {
		return "", fmt.Errorf("invalid public key length: expected 32, got %d", len(keyBytes))
	}

	var publicKey [32]byte
	copy(publicKey[:], keyBytes)

	sealed, err := box.SealAnonymous(nil, []byte(value), &publicKey, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to seal secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

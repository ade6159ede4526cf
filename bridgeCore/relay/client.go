package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pushchain/push-bridge-core/bridgeCore/api"
)

// HTTPSubmitter relays signed votes to a running node's query server.
// Registered errors returned by the node are rebuilt from their codespace
// and code so callers can still match them with errors.Is.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSubmitter(baseURL string, timeout time.Duration) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPSubmitter) SubmitSigned(ctx context.Context, id common.Hash, signature []byte) (common.Address, bool, error) {
	body, err := json.Marshal(api.SignatureRequest{Signature: hexutil.Encode(signature)})
	if err != nil {
		return common.Address{}, false, err
	}
	url := fmt.Sprintf("%s/api/v1/submissions/%s/signatures", h.baseURL, id.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return common.Address{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("relay to %s: %w", h.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return common.Address{}, false, fmt.Errorf("relay to %s: status %d", h.baseURL, resp.StatusCode)
		}
		if apiErr.Codespace != "" {
			return common.Address{}, false, errorsmod.ABCIError(apiErr.Codespace, apiErr.Code, apiErr.Error)
		}
		return common.Address{}, false, fmt.Errorf("relay to %s: %s", h.baseURL, apiErr.Error)
	}

	var out struct {
		Data api.SignatureResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return common.Address{}, false, fmt.Errorf("decode relay response: %w", err)
	}
	return out.Data.Oracle, out.Data.Confirmed, nil
}

package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/wire"
)

// postRecord issues one POST /data/save request and converts the result
// to a delivery outcome. Transport errors and timeouts become failure
// outcomes; they never abort the batch.
func postRecord(ctx context.Context, client *http.Client, baseURL string, rec domain.Record) domain.DeliveryOutcome {
	body, err := json.Marshal(wire.SaveRequest{Record: rec})
	if err != nil {
		return domain.Failure(rec.ID, fmt.Sprintf("encode record: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+SaveEndpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Failure(rec.ID, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return domain.Failure(rec.ID, fmt.Sprintf("transport error: %v", err))
	}
	defer resp.Body.Close()

	var sr wire.SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		if resp.StatusCode/100 == 2 {
			// Accept malformed success bodies; the status code is the
			// authoritative signal.
			return domain.Success(rec.ID)
		}
		return domain.Failure(rec.ID, fmt.Sprintf("server returned %d", resp.StatusCode))
	}

	if resp.StatusCode/100 != 2 || sr.Status == wire.StatusRejected {
		detail := sr.Detail
		if detail == "" {
			detail = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		return domain.Failure(rec.ID, detail)
	}
	return domain.Success(rec.ID)
}

// Package record serializes history records into opaque tokens that can be
// embedded in a single UI attribute and reconstructed losslessly for the
// detail view.
package record

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/utils"
)

// Encode wraps a full history record as a single transport-safe string.
// Every field is preserved, including the ones the summary table hides.
func Encode(r models.HistoryRecord) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", utils.NewDecodeError(err)
	}
	return url.QueryEscape(string(payload)), nil
}

// Decode reconstructs a history record from a token produced by Encode.
// Malformed tokens yield a DecodeError; callers degrade to unknown fields
// instead of failing the detail view.
func Decode(token string) (models.HistoryRecord, error) {
	var r models.HistoryRecord

	token = strings.TrimSpace(token)
	if token == "" {
		return r, utils.NewDecodeError(errors.New("token vacío"))
	}

	payload, err := url.QueryUnescape(token)
	if err != nil {
		return r, utils.NewDecodeError(err)
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&r); err != nil {
		return r, utils.NewDecodeError(err)
	}
	return r, nil
}

package bridge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/waybridge/types"
)

// DecodeRequest parses one raw line into a Request. A malformed line yields a
// decode error instead of a fault, so the line still produces exactly one
// output line. An empty line is a decode failure, not a silent skip.
func DecodeRequest(line string) (*types.Request, *types.Error) {
	if strings.TrimSpace(line) == "" {
		return nil, types.NewError(types.ErrDecode, "empty request line")
	}

	var req types.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return nil, types.NewError(types.ErrDecode, "invalid request line").WithCause(err)
	}

	if req.Tool == "" {
		return nil, types.NewError(types.ErrDecode, "missing tool field")
	}

	req.ID = uuid.NewString()
	req.Raw = line
	req.ReceivedAt = time.Now()
	return &req, nil
}

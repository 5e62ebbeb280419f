package v1

import "encoding/json"

type apiResponse[T any] struct {
	Data T `json:"data"`
}

type SyncEndpoint struct {
	transport *Transport
}

func (ep *SyncEndpoint) Push(req *PushRequest) (*PushAck, error) {
	resp, err := ep.transport.Post("/api/siteclock/v1.0/push", req, nil)
	if err != nil {
		return nil, err
	}

	var result apiResponse[PushAck]
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func (ep *SyncEndpoint) Pull(lastPulledAt int64) (*PullResponse, error) {
	resp, err := ep.transport.Post("/api/siteclock/v1.0/pull", &PullRequest{LastPulledAt: lastPulledAt}, nil)
	if err != nil {
		return nil, err
	}

	var result apiResponse[PullResponse]
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

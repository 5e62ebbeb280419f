package v1

type SiteClockClient struct {
	Transport *Transport
	Sync      *SyncEndpoint
}

// NewSiteClockClient initializes the API client
func NewSiteClockClient(baseURL string, token string) *SiteClockClient {
	t := NewTransport(baseURL, token)
	return &SiteClockClient{
		Transport: t,
		Sync:      &SyncEndpoint{transport: t},
	}
}

package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/studyfellow/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// GetTransport is shared by the model client and the blob store so both reuse
// pooled connections.
func GetTransport() *http.Transport {
	return customTransport
}

func GetHTTPClient() *http.Client {
	once.Do(func() {
		client = &http.Client{Transport: customTransport}
	})
	return client
}

package milesight

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout is applied to every request of the default HTTP client.
	DefaultTimeout = 30 * time.Second

	modulePath = "github.com/corgan2222/milesight-gateway-api"
)

var (
	// ErrInvalidKeyMaterial is returned when the cipher key or IV has the wrong length.
	ErrInvalidKeyMaterial = errors.New("invalid key material")
	// ErrAuthentication is returned when the gateway rejects the login or a token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransport is returned when a request could not be sent or its response not received.
	ErrTransport = errors.New("transport error")
	// ErrStatus is returned when the API returns an unexpected status code.
	ErrStatus = errors.New("unexpected status code")
	// ErrInvalidArgument is returned when an ID cannot be used as a path segment.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Credentials are the login details of a gateway user.
// Key and IV are the AES parameters the gateway web UI uses to encrypt the
// password before sending it.
type Credentials struct {
	Username string
	Password string
	Key      []byte
	IV       []byte
}

// Client holds configuration needed to call the gateway API.
// Use [New] to create a new client.
//
// A Client is meant to be used by one caller at a time; calls are issued
// sequentially and never overlap.
type Client struct {
	baseURL *url.URL

	creds      Credentials
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger

	auth *session
}

// ClientOption configures a Client before use.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
// The default client skips TLS verification; a custom client is used as is.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets a custom User-Agent header for API requests.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a client for the gateway reachable at baseURL and port, e.g.
// New("https://192.168.23.150", 443, creds).
// A port of 0 keeps whatever port baseURL carries.
func New(baseURL string, port int, creds Credentials, opts ...ClientOption) (*Client, error) {
	u, err := gatewayURL(baseURL, port)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				// Gateways ship with self-signed certificates.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
		logger: log.Logger,
		auth:   &session{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.userAgent == "" {
		c.userAgent = userAgent()
	}

	return c, nil
}

// BaseURL returns the resolved gateway address, including the port.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// gatewayURL joins a base URL and a port into the API root.
func gatewayURL(baseURL string, port int) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not an absolute url", baseURL)
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	if port != 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	u.Path = ""
	u.RawQuery = ""

	return u, nil
}

// version returns the module version of the milesight package.
// It returns "devel" if built without module version information.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel"
	}

	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			if dep.Version == "(devel)" {
				return "devel"
			}

			return dep.Version
		}
	}

	if info.Main.Path == modulePath {
		if info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return "devel+" + setting.Value[:7]
			}
		}
	}

	return "devel"
}

// userAgent returns the default User-Agent string for this package.
func userAgent() string {
	return fmt.Sprintf("go-milesight/%s (%s; %s/%s)",
		version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

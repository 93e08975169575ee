package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration required by the service.
type Config struct {
	ListenAddr string

	// DBURL is the pool used by request handlers (RLS-scoped role).
	DBURL string
	// ServiceDBURL is the service-role pool used by the ledger writer. It
	// must be set explicitly: the ledger never degrades to the scoped role.
	ServiceDBURL string

	APIKeys map[string]string // apiKey -> site tag

	AdminTokens map[string]string   // bearer token -> email
	AdminEmails map[string]struct{} // admin allow-list

	// Outbound voice-agent API (dispatch worker).
	PhoneCallAPIURL string
	PhoneCallAPIKey string

	// Dispatch worker knobs.
	DispatchInterval time.Duration
	DispatchBatch    int

	// ZIP lookup upstream.
	ZipAPIURL string
}

// Load reads required values from environment variables.
// API_KEYS format:     "site1:key1,site2:key2"
// ADMIN_TOKENS format: "alice@example.com:token1,bob@example.com:token2"
// ADMIN_EMAILS format: "alice@example.com,bob@example.com"
func Load() (Config, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DB_URL required")
	}

	serviceDBURL := strings.TrimSpace(os.Getenv("SERVICE_DB_URL"))
	if serviceDBURL == "" {
		return Config{}, errors.New("SERVICE_DB_URL required (ledger writes use the service role)")
	}

	apiKeys, err := parsePairs(os.Getenv("API_KEYS"), `API_KEYS must be "site:key,site:key"`)
	if err != nil {
		return Config{}, err
	}
	// Local dev fallback so the service runs out-of-the-box.
	if len(apiKeys) == 0 {
		apiKeys["wm-site-key-123"] = "windowman-web"
	}

	adminTokens, err := parsePairs(os.Getenv("ADMIN_TOKENS"), `ADMIN_TOKENS must be "email:token,email:token"`)
	if err != nil {
		return Config{}, err
	}

	adminEmails := map[string]struct{}{}
	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			adminEmails[e] = struct{}{}
		}
	}

	listen := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listen == "" {
		listen = ":8080"
	}

	interval := 15 * time.Second
	if v := strings.TrimSpace(os.Getenv("DISPATCH_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("DISPATCH_INTERVAL must be a duration (e.g. 15s)")
		}
		interval = d
	}

	batch := 10
	if v := strings.TrimSpace(os.Getenv("DISPATCH_BATCH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.New("DISPATCH_BATCH must be a positive integer")
		}
		batch = n
	}

	zipAPI := strings.TrimSpace(os.Getenv("ZIP_API_URL"))
	if zipAPI == "" {
		zipAPI = "https://api.zippopotam.us/us"
	}

	return Config{
		ListenAddr:       listen,
		DBURL:            dbURL,
		ServiceDBURL:     serviceDBURL,
		APIKeys:          apiKeys,
		AdminTokens:      adminTokens,
		AdminEmails:      adminEmails,
		PhoneCallAPIURL:  strings.TrimSpace(os.Getenv("PHONECALL_API_URL")),
		PhoneCallAPIKey:  strings.TrimSpace(os.Getenv("PHONECALL_API_KEY")),
		DispatchInterval: interval,
		DispatchBatch:    batch,
		ZipAPIURL:        zipAPI,
	}, nil
}

// parsePairs parses "tag:key,tag:key" into map[key]tag.
func parsePairs(raw, formatErr string) (map[string]string, error) {
	out := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(formatErr)
		}
		tag := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if tag == "" || key == "" {
			return nil, errors.New(formatErr)
		}
		out[key] = tag
	}
	return out, nil
}

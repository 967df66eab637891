package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// BackendGoogle and BackendCalDAV name the two supported calendar stores.
const (
	BackendGoogle = "google"
	BackendCalDAV = "caldav"
)

// Config holds the configuration for the daybook tool.
type Config struct {
	Backend               string `json:"backend,omitempty"`
	GoogleCredentialsPath string `json:"google_credentials_path,omitempty"`
	GoogleTokenPath       string `json:"google_token_path,omitempty"`
	CalDAVServerURL       string `json:"caldav_server_url,omitempty"`
	CalDAVUsername        string `json:"caldav_username,omitempty"`
	CalDAVPassword        string `json:"caldav_password,omitempty"`
}

// Overrides carries command-line flag values; empty fields mean "not set".
type Overrides struct {
	Backend               string
	GoogleCredentialsPath string
	GoogleTokenPath       string
	CalDAVServerURL       string
	CalDAVUsername        string
}

// GoogleCredentials represents the structure of Google OAuth credentials JSON file.
type GoogleCredentials struct {
	Installed struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"installed"`
	Web struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"web"`
}

// LoadGoogleCredentials loads Google OAuth credentials from a JSON file.
func LoadGoogleCredentials(path string) (clientID, clientSecret string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds GoogleCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", "", fmt.Errorf("failed to parse credentials file: %w", err)
	}

	// Try "installed" first (for desktop apps), then "web"
	if creds.Installed.ClientID != "" {
		return creds.Installed.ClientID, creds.Installed.ClientSecret, nil
	}
	if creds.Web.ClientID != "" {
		return creds.Web.ClientID, creds.Web.ClientSecret, nil
	}

	return "", "", fmt.Errorf("no client_id found in credentials file (expected 'installed' or 'web' section)")
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Load loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags
// 2. Environment variables (a .env file in the working directory is honored)
// 3. Config file
// 4. Defaults
// Returns an error if any value required by the selected backend is missing.
func Load(configFile string, overrides Overrides) (*Config, error) {
	// The .env file is optional; variables already in the environment win.
	_ = godotenv.Load()

	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadConfigFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	if backend := os.Getenv("DAYBOOK_BACKEND"); backend != "" {
		config.Backend = backend
	}
	if credentialsPath := os.Getenv("GOOGLE_CREDENTIALS_PATH"); credentialsPath != "" {
		config.GoogleCredentialsPath = credentialsPath
	}
	if tokenPath := os.Getenv("GOOGLE_TOKEN_PATH"); tokenPath != "" {
		config.GoogleTokenPath = tokenPath
	}
	if serverURL := os.Getenv("CALDAV_SERVER_URL"); serverURL != "" {
		config.CalDAVServerURL = serverURL
	}
	if username := os.Getenv("CALDAV_USERNAME"); username != "" {
		config.CalDAVUsername = username
	}
	if password := os.Getenv("CALDAV_PASSWORD"); password != "" {
		config.CalDAVPassword = password
	}

	// Step 3: Override with command-line flags (highest priority)
	if overrides.Backend != "" {
		config.Backend = overrides.Backend
	}
	if overrides.GoogleCredentialsPath != "" {
		config.GoogleCredentialsPath = overrides.GoogleCredentialsPath
	}
	if overrides.GoogleTokenPath != "" {
		config.GoogleTokenPath = overrides.GoogleTokenPath
	}
	if overrides.CalDAVServerURL != "" {
		config.CalDAVServerURL = overrides.CalDAVServerURL
	}
	if overrides.CalDAVUsername != "" {
		config.CalDAVUsername = overrides.CalDAVUsername
	}

	// Step 4: Apply defaults and validate required fields
	if config.Backend == "" {
		config.Backend = BackendGoogle
	}

	switch config.Backend {
	case BackendGoogle:
		if config.GoogleCredentialsPath == "" {
			return nil, fmt.Errorf("google_credentials_path must be provided via --google-credentials-path flag, GOOGLE_CREDENTIALS_PATH environment variable, or config file")
		}
		if config.GoogleTokenPath == "" {
			return nil, fmt.Errorf("google_token_path must be provided via --google-token-path flag, GOOGLE_TOKEN_PATH environment variable, or config file")
		}
	case BackendCalDAV:
		if config.CalDAVServerURL == "" {
			return nil, fmt.Errorf("caldav_server_url must be provided via --caldav-server-url flag, CALDAV_SERVER_URL environment variable, or config file")
		}
		if config.CalDAVUsername == "" {
			return nil, fmt.Errorf("caldav_username must be provided via --caldav-username flag, CALDAV_USERNAME environment variable, or config file")
		}
		if config.CalDAVPassword == "" {
			return nil, fmt.Errorf("caldav_password must be provided via the CALDAV_PASSWORD environment variable or config file")
		}
	default:
		return nil, fmt.Errorf("unknown backend %q (expected %q or %q)", config.Backend, BackendGoogle, BackendCalDAV)
	}

	return &config, nil
}

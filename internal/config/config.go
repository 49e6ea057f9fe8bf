package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath string

	LoginURL   string
	IssuedURL  string
	BaseURL    string
	DashPath   string
	HeadlessUI bool

	ClickDelayMs    int
	PopupWaitMs     int
	PageWaitMs      int
	FilterWaitMs    int
	RetryWaitSec    int
	TableWaitSec    int
	LoginWaitSec    int
	MaxRetries      int
	MaxPages        int
	DownloadWorkers int
	DownloadTimeout int
	SessionPool     int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath: getEnv("NFSE_DB_PATH", filepath.Join(cwd, "data", "nfse.db")),

		LoginURL:   getEnv("NFSE_LOGIN_URL", "https://www.nfse.gov.br/EmissorNacional/Login"),
		IssuedURL:  getEnv("NFSE_EMITIDAS_URL", "https://www.nfse.gov.br/EmissorNacional/Notas/Emitidas"),
		BaseURL:    getEnv("NFSE_BASE_URL", "https://www.nfse.gov.br"),
		DashPath:   getEnv("NFSE_DASHBOARD_PATH", "/Dashboard"),
		HeadlessUI: getEnvBool("NFSE_HEADLESS", false),

		ClickDelayMs:    getEnvInt("NFSE_CLICK_DELAY_MS", 150),
		PopupWaitMs:     getEnvInt("NFSE_POPUP_WAIT_MS", 1800),
		PageWaitMs:      getEnvInt("NFSE_PAGE_WAIT_MS", 1000),
		FilterWaitMs:    getEnvInt("NFSE_FILTER_WAIT_MS", 1200),
		RetryWaitSec:    getEnvInt("NFSE_RETRY_WAIT_SEC", 5),
		TableWaitSec:    getEnvInt("NFSE_TABLE_WAIT_SEC", 20),
		LoginWaitSec:    getEnvInt("NFSE_LOGIN_WAIT_SEC", 300),
		MaxRetries:      getEnvInt("NFSE_MAX_RETRIES", 3),
		MaxPages:        getEnvInt("NFSE_MAX_PAGES", 200),
		DownloadWorkers: getEnvInt("NFSE_DL_WORKERS", 8),
		DownloadTimeout: getEnvInt("NFSE_DL_TIMEOUT_SEC", 15),
		SessionPool:     getEnvInt("NFSE_SESSION_POOL", 20),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

package config

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config carries every knob the converter reads. It is built once in
// main and passed down explicitly; no other package reads the
// environment on its own.
type Config struct {
	MboxPath       string
	ChatRoot       string
	IgnoreListPath string
	OutputName     string
}

const DefaultOutputName = "emails_output.pdf"

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		MboxPath:       getEnv("MBOX_PATH", "", printEnv),
		ChatRoot:       getEnv("CHAT_ROOT", "", printEnv),
		IgnoreListPath: getEnv("IGNORE_LIST", "", printEnv),
		OutputName:     getEnv("OUTPUT_PDF", DefaultOutputName, printEnv),
	}

	return conf, nil
}

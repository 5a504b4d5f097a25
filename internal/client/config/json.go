package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/coachsync/coachsync/internal/flagx"
	"github.com/coachsync/coachsync/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files; values are copied into the runtime Config after unmarshalling.
type JsonConfig struct {
	ServerBaseURL       string         `json:"server_base_url"`
	DatabaseFile        string         `json:"database_file"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson loads configuration from the JSON file named by -c/-config.
// If no flag is set, nothing is loaded; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ServerBaseURL = strings.TrimRight(c.ServerBaseURL, "/")
	config.DatabaseFile = c.DatabaseFile
	config.OnlineCheckInterval = time.Duration(c.OnlineCheckInterval.Duration)
}

package config

import (
	"os"

	"github.com/Jeffail/gabs"
)

const configFile = "config.json"

var config *gabs.Container

// Get returns config data with the given path.
// Config data is only allowed in string type.
// Returns an empty string if the config file is not loaded
// or has no value with the given path.
func Get(path string) string {
	if config == nil {
		return ""
	}

	v, ok := config.Path(path).Data().(string)
	if !ok {
		return ""
	}
	return v
}

func init() {
	if _, err := os.Stat(configFile); err != nil {
		// Running without a config file is fine.
		// All settings come from command line flags then.
		return
	}

	json, err := gabs.ParseJSONFile(configFile)
	if err != nil {
		return
	}

	config = json
}

package config

import (
	"fmt"
	"os"
)

func Template() string {
	return connectTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(connectTemplate), 0o600)
}

const connectTemplate = `[connect]
host = "localhost"
port = 28192
username = "admin"
# password = "admin"
password_env = "FISHBOWL_PASSWORD"
# keyring_service = "fishbowl"
timeout = "5s"
login_timeout = "3s"
task_name = ""
format = "xml"
retries = 3
retry_delay = "5s"
retry_multiplier = 1.0
# retry_max_delay = "30s"
retry_jitter = false
chunk_size = 1024
max_payload_bytes = 16777216
encoding = "latin-1"

[log]
level = "info"
`

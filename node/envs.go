package node

import (
	"os"

	"github.com/spf13/viper"
)

// nodeName identifies this instance in logs: node.name, then the pod
// hostname, then the OS hostname.
func nodeName() string {
	if v := viper.GetString("node.name"); v != "" {
		return v
	}
	// Kubernetes first
	if v, ok := os.LookupEnv("HOSTNAME"); ok {
		return v
	}
	if v, err := os.Hostname(); err == nil {
		return v
	}
	return "NoName"
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/files"
	"github.com/annchain/keymanager/common/utilfuncs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// readConfig merges configdir/config.toml, then configdir/injected.toml,
// then KEYMANAGER_* environment variables. Missing files are skipped.
func readConfig() {
	configdir := folder("config", ConfigDir)
	for _, name := range []string{"config.toml", "injected.toml"} {
		p := files.FixPrefixPath(configdir, name)
		if files.FileExists(p) {
			mergeLocalConfig(p)
		} else {
			logrus.WithField("path", p).Debug("config file not found, skipped")
		}
	}
	mergeEnvConfig()

	b, err := common.PrettyJson(viper.AllSettings())
	utilfuncs.PanicIfError(err, "dump json")
	logrus.Debug("running config: " + b)
}

func mergeEnvConfig() {
	// env override, KEYMANAGER_RPC_PORT overrides rpc.port
	viper.SetEnvPrefix("keymanager")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// writeConfig stores the effective settings next to the config it was read from.
func writeConfig() {
	p := files.FixPrefixPath(folder("config", ConfigDir), "running.toml")
	if err := viper.WriteConfigAs(p); err != nil {
		logrus.WithError(err).Warn("failed to write running config")
	}
}

func mergeLocalConfig(configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	viper.SetConfigType("toml")
	err = viper.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
}

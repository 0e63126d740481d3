package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/utilfuncs"
	"github.com/annchain/keymanager/keymanager"
	"github.com/annchain/keymanager/node"
	"github.com/annchain/keymanager/ogdb"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the registry stored in the data dir",
	Long:  `Print registry meta and every retained committee. The node must not be running.`,
	Run: func(cmd *cobra.Command, args []string) {
		folder("data", DataDir)
		readConfig()
		initLogger()
		dump, _ := cmd.Flags().GetBool("dump")

		db, err := ogdb.NewLevelDB(node.RegistryPath(), viper.GetInt("leveldb.cache"), viper.GetInt("leveldb.handles"))
		utilfuncs.PanicIfError(err, "open registry database")
		defer db.Close()
		utilfuncs.PanicIfError(inspect(os.Stdout, ogdb.NewCommitteeStore(db), dump), "inspect")
	},
}

type inspection struct {
	Meta       *keymanager.Meta        `json:"meta"`
	Committees []*keymanager.Committee `json:"committees"`
}

func inspect(w io.Writer, store keymanager.Store, dump bool) error {
	meta, committees, err := store.Load()
	if err != nil {
		return err
	}
	if meta == nil {
		_, err = fmt.Fprintln(w, "registry is empty")
		return err
	}
	if dump {
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, SortKeys: true}
		cfg.Fdump(w, meta, committees)
		return nil
	}
	s, err := common.PrettyJson(inspection{Meta: meta, Committees: committees})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("dump", false, "Dump raw structures with spew instead of json")
}

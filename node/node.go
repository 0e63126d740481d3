package node

import (
	"time"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/utilfuncs"
	"github.com/annchain/keymanager/eventbus"
	"github.com/annchain/keymanager/keymanager"
	"github.com/annchain/keymanager/mylog"
	"github.com/annchain/keymanager/ogdb"
	"github.com/annchain/keymanager/rpc"
	"github.com/annchain/keymanager/wserver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Node is the basic entrypoint for all modules to start.
type Node struct {
	Components []Component
	Registry   *keymanager.Registry
	Verifier   *keymanager.Verifier
	Handle     *keymanager.Handle
	Bus        *eventbus.DefaultEventBus

	db *ogdb.LevelDB
}

// eventLogger writes every notification to the audit log.
type eventLogger struct {
	logger *logrus.Logger
}

func newEventLogger() eventLogger {
	logger := logrus.StandardLogger()
	if viper.GetBool("log.audit") {
		logger = mylog.InitLogger(logger, viper.GetString("dir.log"), "audit")
	}
	return eventLogger{logger: logger}
}

func (eventLogger) HandlerDescription(t eventbus.EventType) string {
	return "log " + keymanager.EventName(t)
}

func (l eventLogger) HandleEvent(ev eventbus.Event) {
	l.logger.WithField("type", keymanager.EventName(ev.GetEventType())).WithField("event", ev).Info("notification")
}

func (eventLogger) Name() string {
	return "EventLogger"
}

func configAddress(key string, fallback string) common.Address {
	s := viper.GetString(key)
	if s == "" {
		s = fallback
	}
	addr, err := parseAddress(s)
	utilfuncs.PanicIfError(err, "bad address in "+key)
	return addr
}

func NewNode() *Node {
	n := new(Node)
	logrus.WithField("node", nodeName()).Info("assembling node")

	var genesis *Genesis
	if path := viper.GetString("keymanager.genesis"); path != "" {
		g, err := LoadGenesis(path)
		utilfuncs.PanicIfError(err, "load genesis")
		genesis = g
	} else {
		genesis = &Genesis{}
	}

	db, err := ogdb.NewLevelDB(RegistryPath(),
		viper.GetInt("leveldb.cache"), viper.GetInt("leveldb.handles"))
	utilfuncs.PanicIfError(err, "open registry database")
	n.db = db

	n.Bus = &eventbus.DefaultEventBus{}
	n.Bus.InitDefault()

	var wsServer *wserver.Server
	if viper.GetBool("websocket.enabled") {
		wsServer = wserver.NewServer(":" + viper.GetString("websocket.port"))
	}
	n.Bus.ListenToAll(keymanager.EventTypes(), keymanager.EventName, newEventLogger())
	if wsServer != nil {
		n.Bus.ListenToAll(keymanager.EventTypes(), keymanager.EventName, wsServer)
	}
	n.Bus.Build()

	clock := keymanager.NewSystemClock(0)
	n.Registry, err = keymanager.NewRegistry(keymanager.RegistryConfig{
		Administrator: configAddress("keymanager.administrator", genesis.Administrator),
		Manager:       configAddress("keymanager.manager", genesis.Manager),
		Clock:         clock,
		Store:         ogdb.NewCommitteeStore(db),
		Notifier:      n.Bus,
		Journal:       keymanager.NewJournal(viper.GetInt("keymanager.journal_size")),
	})
	utilfuncs.PanicIfError(err, "init registry")
	utilfuncs.PanicIfError(genesis.Apply(n.Registry), "apply genesis")

	n.Verifier, err = keymanager.NewVerifier(n.Registry, clock, viper.GetInt("verifier.recovery_cache_size"))
	utilfuncs.PanicIfError(err, "init verifier")
	n.Handle = keymanager.NewHandle(n.Registry, n.Verifier, nil)

	// Order matters. Serve only once state is ready.
	if viper.GetBool("rpc.enabled") {
		controller := &rpc.RpcController{KeyManager: n.Handle}
		n.Components = append(n.Components, rpc.NewRpcServer(viper.GetString("rpc.port"), controller))
	}
	if wsServer != nil {
		n.Components = append(n.Components, wsServer)
	}
	if viper.GetBool("monitor.enabled") {
		monitor := NewPerformanceMonitor(time.Duration(viper.GetInt("monitor.interval_seconds")) * time.Second)
		monitor.Register(registryReporter{registry: n.Registry})
		if wsServer != nil {
			monitor.Register(wsServer)
		}
		n.Components = append(n.Components, monitor)
	}
	return n
}

func (n *Node) Start() {
	for _, component := range n.Components {
		logrus.Infof("Starting %s", component.Name())
		component.Start()
		logrus.Infof("Started: %s", component.Name())
	}
	logrus.Info("Node Started")
}

func (n *Node) Stop() {
	for i := len(n.Components) - 1; i >= 0; i-- {
		comp := n.Components[i]
		logrus.Infof("Stopping %s", comp.Name())
		comp.Stop()
		logrus.Infof("Stopped: %s", comp.Name())
	}
	n.db.Close()
	logrus.Info("Node Stopped")
}

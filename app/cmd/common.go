package cmd

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/annchain/keymanager/common/files"
	"github.com/annchain/keymanager/common/utilfuncs"
	"github.com/annchain/keymanager/mylog"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	LogDir    = "log"
	DataDir   = "data"
	ConfigDir = "config"
)

func DumpStack() {
	if err := recover(); err != nil {
		logrus.WithField("obj", err).Error("Fatal error occurred. Program will exit")
		var buf bytes.Buffer
		stack := debug.Stack()
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(stack)
		dumpName := "dump_" + time.Now().Format("20060102-150405")
		nerr := ioutil.WriteFile(dumpName, buf.Bytes(), 0644)
		if nerr != nil {
			fmt.Println("write dump file error", nerr)
			fmt.Println(buf.String())
		}
		logrus.WithField("stack ", buf.String()).Error("panic")
	}
}

// folder returns the configured dir.<name>, falling back to rootdir/<def>.
// The resolved value is written back so that later readers see it.
func folder(name string, def string) string {
	key := "dir." + name
	dir := viper.GetString(key)
	if dir == "" {
		dir = files.FixPrefixPath(viper.GetString("dir.root"), def)
		viper.Set(key, dir)
	}
	return dir
}

func ensureFolders() {
	root := viper.GetString("dir.root")
	err := files.MkDirIfNotExists(root)
	utilfuncs.PanicIfError(err, "creating root folder")

	for _, dir := range []string{folder("log", LogDir), folder("data", DataDir), folder("config", ConfigDir)} {
		err = files.MkDirIfNotExists(dir)
		utilfuncs.PanicIfError(err, "creating folder: "+dir)
	}
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		fmt.Println("Unknown level: ", level, "Set to INFO")
		return logrus.InfoLevel
	}
	return lvl
}

// initLogger uses viper to get the log path and level. It should be called by all other commands
func initLogger() {
	doStdout := viper.GetBool("log.stdout")
	doFile := viper.GetBool("log.file")
	logdir := folder("log", LogDir)

	var writers []io.Writer
	if doFile {
		folderPath, err := filepath.Abs(logdir)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", logdir))

		abspath, err := filepath.Abs(path.Join(logdir, "run"))
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log file path: %s", logdir))

		err = os.MkdirAll(folderPath, os.ModePerm)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on creating log dir: %s", folderPath))
		writers = append(writers, mylog.RotateLog(abspath))
		fmt.Println("Will be logged to " + abspath + ".log")
	}
	if doStdout {
		writers = append(writers, os.Stdout)
	}
	switch len(writers) {
	case 0:
		logrus.SetOutput(ioutil.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	mylog.LogInit(parseLevel(viper.GetString("log.level")))
	formatter := new(logrus.TextFormatter)
	formatter.ForceColors = doStdout && !doFile
	formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	formatter.FullTimestamp = true
	logrus.StandardLogger().SetFormatter(formatter)

	if viper.GetBool("log.line_number") {
		logrus.SetReportCaller(true)
	}
	if viper.GetBool("multifile_by_level") && doFile {
		writerMap := lfshook.WriterMap{}
		for _, level := range logrus.AllLevels {
			p, _ := filepath.Abs(path.Join(logdir, level.String()))
			writerMap[level] = mylog.RotateLog(p)
		}
		logrus.AddHook(lfshook.NewHook(writerMap, formatter))
	}
	logrus.Debug("Logger initialized.")
}

func startProfiling() {
	port := viper.GetString("profiling.port")
	if port == "" {
		return
	}
	go func() {
		logrus.WithField("port", port).Info("pprof listening")
		log.Println(http.ListenAndServe("0.0.0.0:"+port, nil))
	}()
}

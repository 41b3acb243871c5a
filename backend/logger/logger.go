package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the application logger: a dated file under logDir plus any
// extra writers (the terminal UI log view, or stderr in plain mode). When
// the log directory cannot be prepared the logger degrades to the extra
// writers alone rather than failing startup.
func New(logDir string, extra ...io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})

	writers := make([]io.Writer, 0, len(extra)+1)
	if file := openLogFile(logDir); file != nil {
		writers = append(writers, file)
	}
	writers = append(writers, extra...)

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}
	return log
}

func openLogFile(logDir string) io.Writer {
	if logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil
	}
	name := filepath.Join(logDir, time.Now().Format("2006-01-02")+".log")
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return file
}

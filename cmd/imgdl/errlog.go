package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	imgdl "github.com/anatolykoptev/go-imgdl"
)

// errorLog appends one line per failed batch item to error.log in the
// output directory: timestamp, URL, error name, message. The file is opened
// lazily so a fully successful run leaves nothing behind.
type errorLog struct {
	path string

	mu     sync.Mutex
	f      *os.File
	failed bool
}

func newErrorLog(dir string) *errorLog {
	if dir == "" {
		dir = "."
	}
	return &errorLog{path: filepath.Join(dir, "error.log")}
}

func (l *errorLog) append(url string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		if l.failed {
			return
		}
		f, oerr := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if oerr != nil {
			l.failed = true
			slog.Error("imgdl: cannot open error log", "path", l.path, "error", oerr)
			return
		}
		l.f = f
	}

	fmt.Fprintf(l.f, "%s\t%s\t%s\t%s\n",
		time.Now().Format(time.RFC3339), url, imgdl.ErrorName(err), err.Error())
}

func (l *errorLog) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		l.f.Close()
		l.f = nil
	}
}

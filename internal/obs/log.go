package obs

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

const serviceName = "motordesk"

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stdout
)

// SetLogOutput redirects the shared log stream and returns a function that
// restores the previous writer. Test use only.
func SetLogOutput(w io.Writer) func() {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOut
	logOut = w
	return func() {
		logMu.Lock()
		defer logMu.Unlock()
		logOut = prev
	}
}

// Emit writes one JSON line for the given stream. Every line carries the
// same envelope: timestamp, service name and stream type, so the request
// and audit streams stay greppable side by side. Caller fields never
// override the envelope.
func Emit(stream string, fields map[string]any) {
	entry := map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"service": serviceName,
		"type":    stream,
	}
	for k, v := range fields {
		if _, taken := entry[k]; !taken {
			entry[k] = v
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(`{"service":"` + serviceName + `","type":"log","level":"error","msg":"log marshal failed"}`)
	}
	logMu.Lock()
	defer logMu.Unlock()
	logOut.Write(append(data, '\n'))
}

// LogRequest emits one line on the request stream per served HTTP request.
func LogRequest(fields map[string]any) {
	Emit("http_request", fields)
}

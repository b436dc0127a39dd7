// Package statsview runs a local HTTP server offering runtime statistics
// while a game plays. Graphs are served at /debug/statsview and the
// standard pprof handlers at /debug/pprof/.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is used when Launch is given an empty address.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// Launch starts the stats server on a new goroutine and writes its URL to
// output.
func Launch(addr string, output io.Writer) {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, url)
}

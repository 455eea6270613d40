// Command kurz runs the Base62 URL-redirect service.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/devgrove/adotools/pkg/kurz"
)

var (
	addr    = flag.String("addr", "", "Listen address (defaults to $KURZ_ADDR or :8080)")
	baseURL = flag.String("base-url", "", "External base URL reported for short links")
)

func main() {
	flag.Parse()

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = os.Getenv("KURZ_ADDR")
	}
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	base := strings.TrimRight(*baseURL, "/")
	if base == "" {
		base = "http://localhost" + listenAddr
	}

	server := kurz.NewServer(kurz.NewStore(), kurz.NewMetrics(), base)
	if err := server.ListenAndServe(listenAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}

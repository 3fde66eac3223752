package controller

import (
	"net/http"
	"os"
	"strconv"
	"time"

	http_om "github.com/onemorecasino/roulette/http"
	"github.com/spf13/viper"
)

// NewServer builds the API server on port. TLS is enabled when both
// server.tls_cert and server.tls_key point at readable files.
func NewServer(handler http.Handler, port int) (*http_om.Server, error) {
	options := []http_om.ServerOption{
		http_om.ReadTimeout(1 * time.Minute),
		http_om.WriteTimeout(1 * time.Minute),
		http_om.IdleTimeout(2 * time.Minute),
	}

	certFile, keyFile := viper.GetString("server.tls_cert"), viper.GetString("server.tls_key")
	if certFile != "" && keyFile != "" {
		cert, err := os.ReadFile(certFile)
		if err != nil {
			return nil, err
		}
		key, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, err
		}
		options = append(options, http_om.TLS(cert, key))
	}

	return http_om.NewServer(":"+strconv.Itoa(port), handler, options...)
}

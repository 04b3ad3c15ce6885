package main

import (
	"os"

	"github.com/cshum/magick/config"
	"github.com/cshum/magick/config/awsconfig"
	"github.com/cshum/magick/config/gcloudconfig"
	"github.com/cshum/magick/server"
)

func newServer(args ...string) *server.Server {
	return config.CreateServer(args, awsconfig.WithAWS, gcloudconfig.WithGCloud)
}

func main() {
	if srv := newServer(os.Args[1:]...); srv != nil {
		srv.Run()
	}
}

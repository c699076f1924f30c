// Command usersvc runs the in-memory users CRUD HTTP service.
package main

import (
	"log"

	"github.com/patric-chuzhbe/usersvc/internal/app"
	"github.com/patric-chuzhbe/usersvc/internal/config"
)

// run keeps deferred cleanup ahead of the process exit in main.
func run(optionsProto ...config.InitOption) error {
	theApp, err := app.New(optionsProto...)
	if err != nil {
		return err
	}
	defer theApp.Close()

	return theApp.Run()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// Command fakeapi serves the in-memory notes backend for local development.
package main

import (
	"flag"
	"log"
	"net/http"

	"blocknotes/internal/fakeapi"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	user := flag.String("user", "demo", "seeded username")
	pass := flag.String("password", "demo1234", "seeded password")
	flag.Parse()

	srv := fakeapi.New()
	srv.AddUser(*user, *user+"@example.com", *pass)

	log.Printf("[fakeapi] listening on http://%s (user %q)", *addr, *user)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		log.Fatalf("[fakeapi] %v", err)
	}
}

package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/daeimport/status"
)

func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/convert", HandlerConvert).Methods("POST")
	r.HandleFunc("/report", HandlerReport).Methods("POST")
	r.HandleFunc("/status", status.ServeWS)
	return r
}

func StartServer(addr string) error {
	r := NewRouter()

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
